// Package timeval holds the canonical Timestamp and Duration value types
// together with their parsers and formatters.
//
// Parsers accept a closed set of input shapes (see Input) and either return
// a normalized value or a *ParseError. They never fall back to a zero value.
// Formatters operate on already-valid values and cannot fail.
//
// Calendar arithmetic is approximate by contract: a year is 365 days and a
// month is 30 days wherever a duration mentions them.
package timeval
