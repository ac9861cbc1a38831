package transfer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/linguamem/pkg/models"
)

func lang(code, alias, name string) models.Language {
	return models.Language{Code: code, Name: name, Aliases: []string{alias}}
}

var defaultFamilies = []models.LanguageFamily{
	{
		Name: "Romance",
		Languages: []models.Language{
			lang("spa", "es", "Spanish"),
			lang("fra", "fr", "French"),
			lang("ita", "it", "Italian"),
			lang("por", "pt", "Portuguese"),
			lang("ron", "ro", "Romanian"),
			lang("cat", "ca", "Catalan"),
		},
		SharedConcepts: []string{
			"gendered_nouns",
			"definite_articles",
			"indefinite_articles",
			"adjective_agreement",
			"subjunctive_mood",
			"reflexive_verbs",
			"preterite_imperfect_distinction",
			"compound_tenses",
			"object_pronoun_placement",
			"pro_drop",
		},
	},
	{
		Name: "Germanic",
		Languages: []models.Language{
			lang("deu", "de", "German"),
			lang("nld", "nl", "Dutch"),
			lang("eng", "en", "English"),
			lang("swe", "sv", "Swedish"),
			lang("dan", "da", "Danish"),
			lang("nor", "no", "Norwegian"),
			lang("isl", "is", "Icelandic"),
		},
		SharedConcepts: []string{
			"separable_verbs",
			"v2_word_order",
			"modal_verbs",
			"strong_weak_verbs",
			"compound_nouns",
			"perfect_with_have_be",
		},
	},
	{
		Name: "Slavic",
		Languages: []models.Language{
			lang("rus", "ru", "Russian"),
			lang("pol", "pl", "Polish"),
			lang("ces", "cs", "Czech"),
			lang("slk", "sk", "Slovak"),
			lang("ukr", "uk", "Ukrainian"),
			lang("bul", "bg", "Bulgarian"),
			lang("hrv", "hr", "Croatian"),
			lang("srp", "sr", "Serbian"),
		},
		SharedConcepts: []string{
			"grammatical_cases",
			"verbal_aspect",
			"no_articles",
			"gendered_nouns",
			"motion_verbs",
			"reflexive_verbs",
		},
	},
	{
		Name: "East Asian",
		Languages: []models.Language{
			lang("zho", "zh", "Chinese"),
			lang("jpn", "ja", "Japanese"),
			lang("kor", "ko", "Korean"),
		},
		SharedConcepts: []string{
			"measure_words",
			"topic_comment_structure",
			"honorifics",
			"sino_vocabulary",
			"sentence_final_particles",
		},
	},
	{
		Name: "Semitic",
		Languages: []models.Language{
			lang("ara", "ar", "Arabic"),
			lang("heb", "he", "Hebrew"),
			lang("amh", "am", "Amharic"),
			lang("mlt", "mt", "Maltese"),
		},
		SharedConcepts: []string{
			"root_pattern_morphology",
			"dual_number",
			"construct_state",
			"gendered_nouns",
			"derived_verb_stems",
		},
	},
	{
		Name: "Indo-Aryan",
		Languages: []models.Language{
			lang("hin", "hi", "Hindi"),
			lang("urd", "ur", "Urdu"),
			lang("ben", "bn", "Bengali"),
			lang("pan", "pa", "Punjabi"),
			lang("mar", "mr", "Marathi"),
			lang("guj", "gu", "Gujarati"),
		},
		SharedConcepts: []string{
			"postpositions",
			"sov_word_order",
			"ergative_alignment",
			"compound_verbs",
			"gendered_nouns",
			"honorific_pronouns",
		},
	},
	{
		Name: "Turkic",
		Languages: []models.Language{
			lang("tur", "tr", "Turkish"),
			lang("aze", "az", "Azerbaijani"),
			lang("uzb", "uz", "Uzbek"),
			lang("kaz", "kk", "Kazakh"),
		},
		SharedConcepts: []string{
			"vowel_harmony",
			"agglutinative_suffixes",
			"sov_word_order",
			"evidentiality",
			"no_grammatical_gender",
		},
	},
}

// DefaultFamilies returns a copy of the built-in family table
func DefaultFamilies() []models.LanguageFamily {
	out := make([]models.LanguageFamily, 0, len(defaultFamilies))
	for _, f := range defaultFamilies {
		langs := make([]models.Language, 0, len(f.Languages))
		for _, l := range f.Languages {
			l.Aliases = append([]string(nil), l.Aliases...)
			langs = append(langs, l)
		}
		out = append(out, models.LanguageFamily{
			Name:           f.Name,
			Languages:      langs,
			SharedConcepts: append([]string(nil), f.SharedConcepts...),
		})
	}
	return out
}

type familyFile struct {
	Families []models.LanguageFamily `yaml:"families"`
}

// LoadFamilies reads a YAML family table that replaces the built-in one
func LoadFamilies(path string) ([]models.LanguageFamily, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language families: %w", err)
	}
	return ParseFamilies(data)
}

// ParseFamilies decodes and validates a YAML family table
func ParseFamilies(data []byte) ([]models.LanguageFamily, error) {
	var file familyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal language families: %w", err)
	}
	if len(file.Families) == 0 {
		return nil, fmt.Errorf("language families: no families defined")
	}
	for i := range file.Families {
		normalizeFamily(&file.Families[i])
	}
	if err := validateFamilies(file.Families); err != nil {
		return nil, err
	}
	return file.Families, nil
}

func normalizeFamily(f *models.LanguageFamily) {
	f.Name = strings.TrimSpace(f.Name)
	for i := range f.Languages {
		l := &f.Languages[i]
		l.Code = normalizeCode(l.Code)
		for j := range l.Aliases {
			l.Aliases[j] = normalizeCode(l.Aliases[j])
		}
	}
	for i := range f.SharedConcepts {
		f.SharedConcepts[i] = strings.TrimSpace(f.SharedConcepts[i])
	}
}

// validateFamilies rejects tables where a code or alias belongs to two languages
func validateFamilies(families []models.LanguageFamily) error {
	owner := make(map[string]string)
	for _, f := range families {
		if f.Name == "" {
			return fmt.Errorf("language families: family without a name")
		}
		if len(f.Languages) == 0 {
			return fmt.Errorf("language family %q: no languages", f.Name)
		}
		for _, l := range f.Languages {
			if l.Code == "" {
				return fmt.Errorf("language family %q: language without a code", f.Name)
			}
			for _, code := range append([]string{l.Code}, l.Aliases...) {
				if prev, ok := owner[code]; ok {
					return fmt.Errorf("language families: code %q used by both %s and %s", code, prev, f.Name)
				}
				owner[code] = f.Name
			}
		}
	}
	return nil
}

// normalizeCode lower-cases a language tag and drops any region or script subtag
func normalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	return code
}
