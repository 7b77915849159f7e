// Package staticcharacter reads a read-only character sheet from YAML.
package staticcharacter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"villagelife/internal/app/ports"
)

var ErrInvalidCharacter = errors.New("invalid character file")

type Provider struct {
	Path string
}

func (p Provider) Character(_ context.Context) (ports.Character, error) {
	b, err := os.ReadFile(p.Path)
	if err != nil {
		return ports.Character{}, err
	}
	return Parse(b)
}

// Parse decodes a character sheet. Unknown fields are rejected so typos in
// hand-edited files surface.
func Parse(b []byte) (ports.Character, error) {
	var c ports.Character
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return ports.Character{}, fmt.Errorf("%w: %v", ErrInvalidCharacter, err)
	}
	if c.VillageLevel < 0 || c.Reputation < 0 {
		return ports.Character{}, fmt.Errorf("%w: negative level or reputation", ErrInvalidCharacter)
	}
	for name, level := range c.Skills {
		if level < 0 || level > 100 {
			return ports.Character{}, fmt.Errorf("%w: skill %s out of range", ErrInvalidCharacter, name)
		}
	}
	if c.VillageLevel == 0 {
		c.VillageLevel = 1
	}
	return c, nil
}
