// Package apngchunk encodes the low-level byte layout of PNG and APNG
// chunks: IHDR, PLTE, tRNS, acTL, fcTL, IDAT, fdAT, IEND. It knows the wire
// format of each chunk's payload and nothing about chunk ordering, strip
// policy, or how the payload bytes were produced — that's
// internal/writer's job.
package apngchunk
