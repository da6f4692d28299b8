// Package conv provides bounds-checked integer conversions for values read
// from or written to fixed-width fields, such as index blob headers and
// 32-bit point bitmaps.
package conv
