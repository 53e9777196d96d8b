// Package i18n localizes the status messages reported to the user.
//
// Two locales are bundled: en-US and es-MX. Any Spanish preference resolves
// to es-MX; everything else falls back to en-US.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// PreferenceSystem resolves the language from the process locale.
const PreferenceSystem = "system"

// Message keys.
const (
	KeySaveDialogTitle = "export.saveDialogTitle"
	KeyCanceled        = "export.canceled"
	KeyNoDocuments     = "export.noDocuments"
	KeyGenericError    = "export.genericError"
	KeyFolderError     = "export.folderError"
	KeyProjectError    = "export.projectError"
	KeySuccessPath     = "export.successPath"
)

var (
	english = language.AmericanEnglish
	spanish = language.MustParse("es-MX")

	supported = []language.Tag{english, spanish}
	matcher   = language.NewMatcher(supported)
)

var translations = map[language.Tag]map[string]string{
	english: {
		KeySaveDialogTitle: "Export PDF",
		KeyCanceled:        "Export canceled",
		KeyNoDocuments:     "No markdown documents available to export",
		KeyGenericError:    "Could not export PDF",
		KeyFolderError:     "Could not export folder PDF",
		KeyProjectError:    "Could not export project PDF",
		KeySuccessPath:     "PDF exported to %s",
	},
	spanish: {
		KeySaveDialogTitle: "Exportar PDF",
		KeyCanceled:        "Exportacion cancelada",
		KeyNoDocuments:     "No hay documentos markdown para exportar",
		KeyGenericError:    "No se pudo exportar PDF",
		KeyFolderError:     "No se pudo exportar PDF de carpeta",
		KeyProjectError:    "No se pudo exportar PDF de proyecto",
		KeySuccessPath:     "PDF exportado en %s",
	},
}

var bundle = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(english))
	for tag, messages := range translations {
		for key, msg := range messages {
			if err := b.SetString(tag, key, msg); err != nil {
				panic("i18n: " + err.Error())
			}
		}
	}
	return b
}

// Messages renders localized status strings for one language.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// New resolves preference ("system", "", or a BCP 47 tag such as "es-MX")
// and returns the matching Messages. getenv is used for "system".
func New(preference string, getenv func(string) string) *Messages {
	tag := Resolve(preference, getenv)
	return &Messages{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(bundle)),
	}
}

// Resolve maps a preference onto one of the supported tags.
func Resolve(preference string, getenv func(string) string) language.Tag {
	pref := strings.TrimSpace(preference)
	if pref == "" || strings.EqualFold(pref, PreferenceSystem) {
		pref = systemLocale(getenv)
	}
	tag, err := language.Parse(normalizeLocale(pref))
	if err != nil {
		return english
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return english
	}
	return supported[index]
}

// systemLocale reads the POSIX locale variables in priority order.
func systemLocale(getenv func(string) string) string {
	if getenv == nil {
		return ""
	}
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// normalizeLocale turns "es_MX.UTF-8@euro" into "es-MX".
func normalizeLocale(s string) string {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "_", "-")
}

// Lang returns the resolved language as a BCP 47 string.
func (m *Messages) Lang() string {
	return m.tag.String()
}

func (m *Messages) SaveDialogTitle() string { return m.printer.Sprintf(KeySaveDialogTitle) }
func (m *Messages) Canceled() string        { return m.printer.Sprintf(KeyCanceled) }
func (m *Messages) NoDocuments() string     { return m.printer.Sprintf(KeyNoDocuments) }
func (m *Messages) GenericError() string    { return m.printer.Sprintf(KeyGenericError) }
func (m *Messages) FolderError() string     { return m.printer.Sprintf(KeyFolderError) }
func (m *Messages) ProjectError() string    { return m.printer.Sprintf(KeyProjectError) }

// Exported reports a successful export to path.
func (m *Messages) Exported(path string) string {
	return m.printer.Sprintf(KeySuccessPath, path)
}
