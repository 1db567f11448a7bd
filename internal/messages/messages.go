// Package messages holds the user-facing strings of the app, keyed and
// localized. Lookups fall back to English when a locale has no entry.
package messages

import "fmt"

type Key string

const (
	// Editor dialog.
	EditorTitle         Key = "editor.title"
	ErrorCaption        Key = "error.caption"
	ResourceUnavailable Key = "editor.resource_unavailable"
	CloseCaption        Key = "editor.close.caption"
	CloseText           Key = "editor.close.text"
	SaveBeforeLeaving   Key = "editor.save_before_leaving"

	// App shell.
	AppTitle      Key = "app.title"
	StatusOnline  Key = "app.status.online"
	StatusOffline Key = "app.status.offline"
)

var english = map[Key]string{
	EditorTitle:         "Content editor",
	ErrorCaption:        "Error",
	ResourceUnavailable: "The resource %s is currently unavailable. It may have been moved or deleted.",
	CloseCaption:        "Close editor",
	CloseText:           "Do you really want to close the editor? All unsaved changes will be lost.",
	SaveBeforeLeaving:   "Save the edited content of %s before leaving?",

	AppTitle:      "Pagedoor",
	StatusOnline:  "Connected to %s",
	StatusOffline: "Not connected",
}

var dutch = map[Key]string{
	EditorTitle:         "Inhoudseditor",
	ErrorCaption:        "Fout",
	ResourceUnavailable: "De bron %s is momenteel niet beschikbaar. Mogelijk is deze verplaatst of verwijderd.",
	CloseCaption:        "Editor sluiten",
	CloseText:           "Wilt u de editor echt sluiten? Alle niet-opgeslagen wijzigingen gaan verloren.",
	SaveBeforeLeaving:   "De bewerkte inhoud van %s opslaan voordat u weggaat?",

	AppTitle:      "Pagedoor",
	StatusOnline:  "Verbonden met %s",
	StatusOffline: "Niet verbonden",
}

var locales = map[string]map[Key]string{
	"en": english,
	"nl": dutch,
}

// Bundle resolves keys for one locale.
type Bundle struct {
	table map[Key]string
}

// For returns the bundle for a locale ("en", "nl", "nl-NL", ...).
// Unknown locales get English.
func For(locale string) *Bundle {
	if t, ok := locales[locale]; ok {
		return &Bundle{table: t}
	}
	if len(locale) > 2 {
		if t, ok := locales[locale[:2]]; ok {
			return &Bundle{table: t}
		}
	}
	return &Bundle{table: english}
}

// Get formats the message for key with args. Missing keys fall back to
// English, then to the raw key so a bad lookup stays visible instead of
// rendering blank UI.
func (b *Bundle) Get(k Key, args ...any) string {
	tmpl, ok := b.table[k]
	if !ok {
		tmpl, ok = english[k]
	}
	if !ok {
		return string(k)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
