// Package dupes classifies destination collisions and applies recorded
// duplicate resolutions. Classification is strictly byte equality: a size
// gate followed by streamed chunk comparison, never hashing or perceptual
// similarity.
package dupes
