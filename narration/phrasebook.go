package narration

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/navassist/models/postprocess"
)

// Language is a phrasebook language.
type Language string

const (
	// LanguageRussian is the default language of the assistant.
	LanguageRussian Language = "ru"
	// LanguageEnglish is English.
	LanguageEnglish Language = "en"
)

// ParseLanguage accepts "ru", "en" and their region tags.
func ParseLanguage(s string) (Language, error) {
	switch l := strings.ToLower(s); {
	case l == "" || l == "ru" || strings.HasPrefix(l, "ru-"):
		return LanguageRussian, nil
	case l == "en" || strings.HasPrefix(l, "en-"):
		return LanguageEnglish, nil
	}
	return "", errors.Errorf("unsupported language %q", s)
}

// Phrasebook holds the fixed phrases and status texts of one language.
type Phrasebook struct {
	Language Language
	// Tag is the BCP 47 tag used by speech engines.
	Tag string

	Activated string
	Stopped   string
	// Halted is the status shown while stopped; Stopped is spoken.
	Halted    string
	Scanning  string
	Loading   string
	Ready     string
	NoObjects string

	errorPrefix string
	pieces      string
	detected    func(n int) string
	distances   map[postprocess.Level]string
	classes     map[string]string
}

var phrasebooks = map[Language]Phrasebook{
	LanguageRussian: {
		Language:    LanguageRussian,
		Tag:         "ru-RU",
		Activated:   "Навигация активирована",
		Stopped:     "Навигация остановлена",
		Halted:      "⏹️ Остановлено",
		Scanning:    "🔍 Сканирование...",
		Loading:     "🔄 Загрузка модели...",
		Ready:       "✅ Готов к работе",
		NoObjects:   "Объекты не обнаружены",
		errorPrefix: "❌ Ошибка: ",
		pieces:      "шт",
		detected: func(n int) string {
			return fmt.Sprintf("Обнаружено %d %s", n, russianPlural(n, "объект", "объекта", "объектов"))
		},
		distances: map[postprocess.Level]string{
			postprocess.LevelClose:  "близко",
			postprocess.LevelMedium: "средняя дистанция",
			postprocess.LevelFar:    "далеко",
		},
		classes: map[string]string{
			"person":        "человек",
			"bicycle":       "велосипед",
			"car":           "автомобиль",
			"motorcycle":    "мотоцикл",
			"bus":           "автобус",
			"truck":         "грузовик",
			"traffic light": "светофор",
			"cat":           "кошка",
			"dog":           "собака",
			"bird":          "птица",
		},
	},
	LanguageEnglish: {
		Language:    LanguageEnglish,
		Tag:         "en-US",
		Activated:   "Navigation activated",
		Stopped:     "Navigation stopped",
		Halted:      "⏹️ Stopped",
		Scanning:    "🔍 Scanning...",
		Loading:     "🔄 Loading model...",
		Ready:       "✅ Ready",
		NoObjects:   "No objects detected",
		errorPrefix: "❌ Error: ",
		pieces:      "pcs",
		detected: func(n int) string {
			if n == 1 {
				return "Detected 1 object"
			}
			return fmt.Sprintf("Detected %d objects", n)
		},
		distances: map[postprocess.Level]string{
			postprocess.LevelClose:  "close",
			postprocess.LevelMedium: "medium distance",
			postprocess.LevelFar:    "far",
		},
	},
}

// Phrases returns the phrasebook of a language.
func Phrases(lang Language) (Phrasebook, error) {
	p, ok := phrasebooks[lang]
	if !ok {
		return Phrasebook{}, errors.Errorf("no phrasebook for language %q", lang)
	}
	return p, nil
}

// Detected returns the "N objects detected" phrase.
func (p Phrasebook) Detected(n int) string {
	return p.detected(n)
}

// Error returns the status text of a setup failure.
func (p Phrasebook) Error(err error) string {
	return p.errorPrefix + err.Error()
}

// Pieces returns the count column of the object list, e.g. "2 шт".
func (p Phrasebook) Pieces(n int) string {
	return fmt.Sprintf("%d %s", n, p.pieces)
}

// Distance returns the spoken distance of a level.
func (p Phrasebook) Distance(level postprocess.Level) string {
	if s, ok := p.distances[level]; ok {
		return s
	}
	return level.Label()
}

// Class returns the localized class label. Unknown labels are returned unchanged.
func (p Phrasebook) Class(name string) string {
	if s, ok := p.classes[name]; ok {
		return s
	}
	return name
}

// Nearest returns the phrase naming the nearest object and its distance.
func (p Phrasebook) Nearest(d postprocess.Detection) string {
	return fmt.Sprintf("%s, %s", p.Class(d.Class), p.Distance(d.Distance().Level))
}

func russianPlural(n int, one, few, many string) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	}
	return many
}
