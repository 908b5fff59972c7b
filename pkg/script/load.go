package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a script document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the document format from a file name.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported script extension: %q", filepath.Ext(filename))
	}
}

// IsScriptFile reports whether a file name has a script extension.
func IsScriptFile(filename string) bool {
	_, err := FormatOf(filename)
	return err == nil
}

// Parse decodes a script document. The file name selects the format and is
// recorded on the script when the document does not name itself.
func Parse(data []byte, filename string) (*Script, error) {
	return parse(data, filename, false)
}

// ParseStrict is Parse but rejects unknown fields.
func ParseStrict(data []byte, filename string) (*Script, error) {
	return parse(data, filename, true)
}

func parse(data []byte, filename string, strict bool) (*Script, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}

	var s Script
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode json script %s: %w", filename, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(strict)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode yaml script %s: %w", filename, err)
		}
	}

	if s.FileName == "" {
		s.FileName = filepath.Base(filename)
	}
	s.normalize()
	return &s, nil
}

// normalize puts every lookup key in NFC so that ids typed with composed and
// decomposed characters still match. Dialogue text is left untouched.
func (s *Script) normalize() {
	if len(s.Characters) > 0 {
		chars := make(map[string]Character, len(s.Characters))
		for id, c := range s.Characters {
			if len(c.Sprites) > 0 {
				sprites := make(map[string]string, len(c.Sprites))
				for emotion, path := range c.Sprites {
					sprites[norm.NFC.String(emotion)] = path
				}
				c.Sprites = sprites
			}
			chars[norm.NFC.String(id)] = c
		}
		s.Characters = chars
	}

	if len(s.Backgrounds) > 0 {
		bgs := make(map[string]string, len(s.Backgrounds))
		for id, path := range s.Backgrounds {
			bgs[norm.NFC.String(id)] = path
		}
		s.Backgrounds = bgs
	}

	for i := range s.Steps {
		s.Steps[i].Speaker = norm.NFC.String(s.Steps[i].Speaker)
		s.Steps[i].BG = norm.NFC.String(s.Steps[i].BG)
		s.Steps[i].Emotion = norm.NFC.String(s.Steps[i].Emotion)
	}
}
