// Package textutil provides text processing utilities for fingerprinting,
// similarity, and filename sanitization.
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// Tokenization lowercases text, splits on non-alphanumeric characters, and
// filters single-character tokens.
package textutil
