package ioutil

import "github.com/dustin/go-humanize"

// HumanSize formats a byte count for log lines the way kmcp's progress
// bars and summary log messages do.
func HumanSize(n uint64) string { return humanize.Bytes(n) }

// HumanCount formats an element count with thousands separators, used
// for k-mer/record counts in log lines.
func HumanCount(n uint64) string { return humanize.Comma(int64(n)) }
