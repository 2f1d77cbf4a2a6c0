// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package translate formats the user-facing messages of the simulator in
// the language of the host locale.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer *message.Printer
	once    sync.Once
	mutex   sync.Mutex
)

func load() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("avrsim: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// SetLanguage forces the message language, overriding the host locale.
func SetLanguage(tag language.Tag) {
	once.Do(load)

	mutex.Lock()
	defer mutex.Unlock()
	printer = message.NewPrinter(tag)
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	once.Do(load)

	mutex.Lock()
	p := printer
	mutex.Unlock()

	return p.Sprintf(key, args...)
}
