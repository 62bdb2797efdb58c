package templates

import "embed"

//go:embed corpus
var corpus embed.FS

// LoadEmbedded returns a store holding the templates compiled into the binary.
func LoadEmbedded() (*Store, error) {
	return LoadFS(corpus, "corpus")
}
