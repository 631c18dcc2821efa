// Package sanitizer normalizes free-text input before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be
// normalized comes back empty, leaving the decision to the validator.
//
// Normalization includes:
//   - Names, locations and reasons: trim and collapse inner whitespace
//   - Emails: trim and lowercase
//   - Phone numbers: convert to E.164 (+[country][number])
package sanitizer
