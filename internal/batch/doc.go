// Package batch reads the word lists processed by the batch commands.
package batch
