package svcerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// FromOpenAI classifies an error returned by the go-openai client.
func FromOpenAI(service, op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 && isQuotaCode(apiErr.Code) {
			err = fmt.Errorf("%w: %w", ErrQuotaExhausted, err)
		}
		return Classify(service, op, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return Classify(service, op, reqErr.HTTPStatusCode, err)
	}
	return Classify(service, op, 0, err)
}

func isQuotaCode(code any) bool {
	s, ok := code.(string)
	return ok && strings.Contains(s, "quota")
}

// FromGenAI classifies an error returned by the genai client.
func FromGenAI(service, op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 && strings.Contains(strings.ToLower(apiErr.Message), "quota") &&
			strings.Contains(strings.ToLower(apiErr.Message), "per day") {
			err = fmt.Errorf("%w: %w", ErrQuotaExhausted, err)
		}
		return Classify(service, op, apiErr.Code, err)
	}
	return Classify(service, op, 0, err)
}
