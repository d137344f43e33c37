// Package spec holds the Encoding Spec: the typed option set (Params), the
// per-type mapping rules, time values, watermark and screenshot requests.
//
// Params is a plain struct so misspelled options fail to compile; values
// are checked by Params.Validate when a Spec is built. A Spec remembers its
// construction baseline and Reset returns to it after each run.
package spec
