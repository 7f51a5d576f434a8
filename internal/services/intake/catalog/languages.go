package catalog

import (
	"slices"

	"golang.org/x/text/language"
)

// Language is a spoken language option. Tag is the BCP 47 tag used for the
// lang attribute when one exists.
type Language struct {
	Name string
	Tag  language.Tag
}

var languages = []Language{
	{Name: "American Sign Language", Tag: language.MustParse("ase")},
	{Name: "Arabic", Tag: language.Arabic},
	{Name: "Armenian", Tag: language.Armenian},
	{Name: "Cambodian", Tag: language.Khmer},
	{Name: "Cantonese", Tag: language.MustParse("yue")},
	{Name: "English", Tag: language.English},
	{Name: "Farsi", Tag: language.Persian},
	{Name: "Hmong", Tag: language.MustParse("hmn")},
	{Name: "Japanese", Tag: language.Japanese},
	{Name: "Korean", Tag: language.Korean},
	{Name: "Lao", Tag: language.Lao},
	{Name: "Mandarin", Tag: language.MustParse("cmn")},
	{Name: "Other Chinese", Tag: language.Chinese},
	{Name: "Punjabi", Tag: language.Punjabi},
	{Name: "Russian", Tag: language.Russian},
	{Name: "Spanish", Tag: language.Spanish},
	{Name: "Tagalog", Tag: language.Filipino},
	{Name: "Vietnamese", Tag: language.Vietnamese},
	{Name: "Other", Tag: language.Und},
}

// Languages lists the spoken languages in display order.
func Languages() []Language { return slices.Clone(languages) }

// LanguageTag returns the tag for a language name, or language.Und.
func LanguageTag(name string) language.Tag {
	for _, l := range languages {
		if l.Name == name {
			return l.Tag
		}
	}
	return language.Und
}

// IsLanguage reports whether name is in the catalogue.
func IsLanguage(name string) bool {
	return slices.ContainsFunc(languages, func(l Language) bool { return l.Name == name })
}
