package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type SessionID string
type MessageID string

type Timestamp = time.Time

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// View is the screen the learner is currently on.
type View string

const (
	ViewWelcome   View = "welcome"
	ViewDashboard View = "dashboard"
	ViewTopic     View = "topic"
	ViewLesson    View = "lesson"
	ViewQuiz      View = "quiz"
	ViewHomework  View = "homework"
)

type Language string

const (
	LangArabic  Language = "ar"
	LangEnglish Language = "en"
)

func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LangArabic:
		return LangArabic, nil
	case LangEnglish:
		return LangEnglish, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// Toggle returns the other supported language.
func (l Language) Toggle() Language {
	if l == LangEnglish {
		return LangArabic
	}
	return LangEnglish
}

// Direction is the text direction used to render the language.
func (l Language) Direction() string {
	if l == LangArabic {
		return "rtl"
	}
	return "ltr"
}

// Grade is an ordinal school grade, 1 to 6. The zero value means unset.
type Grade int

const (
	GradeUnset Grade = iota
	Grade1
	Grade2
	Grade3
	Grade4
	Grade5
	Grade6
)

var AllGrades = []Grade{Grade1, Grade2, Grade3, Grade4, Grade5, Grade6}

func (g Grade) Valid() bool {
	return g >= Grade1 && g <= Grade6
}

func ParseGrade(s string) (Grade, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return GradeUnset, fmt.Errorf("invalid grade %q", s)
	}
	g := Grade(n)
	if !g.Valid() {
		return GradeUnset, fmt.Errorf("grade %d out of range", n)
	}
	return g, nil
}

// Mode is the learning activity picked on the dashboard. Empty means unset.
type Mode string

const (
	ModeExplain    Mode = "explain"
	ModeExperiment Mode = "experiment" // science story
	ModeQuiz       Mode = "quiz"
	ModeHomework   Mode = "homework"
)

var AllModes = []Mode{ModeExplain, ModeExperiment, ModeQuiz, ModeHomework}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "explain":
		return ModeExplain, nil
	case "experiment", "story":
		return ModeExperiment, nil
	case "quiz":
		return ModeQuiz, nil
	case "homework":
		return ModeHomework, nil
	}
	return "", fmt.Errorf("unknown learning mode %q", s)
}

// Topic identifies one science topic. Empty means unset.
type Topic string

const (
	// Lower primary (grades 1-3)
	TopicSenses         Topic = "senses"
	TopicLivingNeeds    Topic = "living_needs"
	TopicWeatherSeasons Topic = "weather_seasons"
	TopicMaterials      Topic = "materials"

	// Upper primary (grades 4-6)
	TopicHumanBody         Topic = "human_body"
	TopicSolarSystem       Topic = "solar_system"
	TopicEnergyElectricity Topic = "energy_electricity"
	TopicForceMotion       Topic = "force_motion"
	TopicEcosystem         Topic = "ecosystem"
)

var (
	lowerPrimaryTopics = []Topic{TopicSenses, TopicLivingNeeds, TopicWeatherSeasons, TopicMaterials}
	upperPrimaryTopics = []Topic{TopicHumanBody, TopicSolarSystem, TopicEnergyElectricity, TopicForceMotion, TopicEcosystem}
)

func ParseTopic(s string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range append(lowerPrimaryTopics, upperPrimaryTopics...) {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topic %q", s)
}

// TopicsForGrade lists the topics offered to a grade. Grades 1-3 share the
// lower primary curriculum, grades 4-6 the upper one.
func TopicsForGrade(g Grade) []Topic {
	switch {
	case !g.Valid():
		return nil
	case g <= Grade3:
		return append([]Topic(nil), lowerPrimaryTopics...)
	default:
		return append([]Topic(nil), upperPrimaryTopics...)
	}
}

func (g Grade) Offers(t Topic) bool {
	for _, candidate := range TopicsForGrade(g) {
		if candidate == t {
			return true
		}
	}
	return false
}
