// Package i18n looks up localized success messages by result code.
package i18n

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/webappsync/internal/common"
	"github.com/dmitrijs2005/webappsync/internal/logging"
)

//go:embed success_messages.json
var successMessages []byte

// Entry is one message: the placeholder names it accepts and its text per
// language.
type Entry struct {
	Variables    []string          `json:"variables"`
	Translations map[string]string `json:"translations"`
}

type Catalog struct {
	entries  map[string]Entry
	fallback string
	logger   logging.Logger
}

// Load parses a catalog document of the form
// {"CODE": {"variables": [...], "translations": {"lang": "text"}}}.
func Load(data []byte, logger logging.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	entries := map[string]Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}
	return &Catalog{entries: entries, fallback: common.DefaultLanguage, logger: logger}, nil
}

// Default returns the built-in success message catalog.
func Default(logger logging.Logger) *Catalog {
	c, err := Load(successMessages, logger)
	if err != nil {
		// the embedded file is part of the build
		panic(err)
	}
	return c
}

// Translate renders the message for code in lang. Unknown codes yield "",
// unknown languages fall back to en-US and missing variables are replaced
// with an empty string.
func (c *Catalog) Translate(ctx context.Context, code, lang string, vars map[string]string) string {
	entry, ok := c.entries[code]
	if !ok {
		c.logger.Error(ctx, "invalid success code", "code", code)
		return ""
	}

	text, ok := entry.Translations[lang]
	if !ok {
		c.logger.Warn(ctx, "language not found, using fallback", "code", code, "lang", lang, "fallback", c.fallback)
		text = entry.Translations[c.fallback]
	}

	for _, name := range entry.Variables {
		value, ok := vars[name]
		if !ok {
			c.logger.Warn(ctx, "missing variable, using empty string", "code", code, "variable", name)
		}
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}
