// Package models lists the text generation and speech models available to
// the configured API keys, so that users can pick values for the
// textgen.model and tts.model settings.
package models
