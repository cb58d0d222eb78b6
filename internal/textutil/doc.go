// Package textutil provides the text helpers shared by the stages: title
// slugs, dialogue word excerpts, and token fingerprints used to spot
// near-duplicate idea titles.
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// Tokenization lowercases text, splits on anything that is not a letter or
// digit, and filters tokens shorter than 3 characters.
package textutil
