package llm

import (
	"fmt"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

// DefaultSpeechCharLimit caps how much text is sent to speech synthesis.
const DefaultSpeechCharLimit = 2000

const personaPrompt = `
You are "The Smart Tutor" (المدرس الذكي), an AI science tutor for primary school kids.
%s
%s
Goal: Make science fun, accessible, and age-appropriate.
If the child makes a mistake, correct them gently and constructively.
Use emojis to make the text lively.
`

const beginnerInstructions = `
Target Audience: Children aged 6-7 (Grades 1-2).
Complexity Level: Beginner.
Style: Use very simple, short sentences. Focus on sensory details (what we see, hear, feel).
Avoid complex scientific terms. Use concrete examples from home and school.
Tone: Playful, warm, like a kindergarten teacher.
`

const intermediateInstructions = `
Target Audience: Children aged 8-9 (Grades 3-4).
Complexity Level: Intermediate.
Style: Explain "How" and "Why". Start introducing cause and effect.
Use simple analogies. Introduce basic scientific terms but explain them immediately.
Tone: Encouraging, like a guide on an adventure.
`

const advancedInstructions = `
Target Audience: Children aged 10-12 (Grades 5-6).
Complexity Level: Advanced Primary.
Style: Discuss processes, systems, and relationships.
Use accurate scientific terminology. Connect concepts to real-world applications and technology.
Tone: Junior scientist mentor, respectful of their growing intelligence.
`

const primaryImagePrompt = `
Create a high-quality, cute, 3D cartoon educational illustration about: "%s".
CRITICAL: DO NOT WRITE TEXT. Keep it visual only.
Focus on a clear, single object or scene for a child.
Background: Simple and bright. Aspect ratio 4:3.
`

const secondaryImagePrompt = `
High-quality educational scientific diagram for kids explaining: "%s".
Labels and text MUST be in ENGLISH.
Visual Style: Colorful, clear, white background. Aspect ratio 4:3.
`

// SystemInstruction builds the tutor persona for a grade and output language.
func SystemInstruction(g domain.Grade, lang domain.Language) string {
	return fmt.Sprintf(personaPrompt, languageInstruction(lang), complexityInstructions(g))
}

func languageInstruction(lang domain.Language) string {
	if lang == domain.LangEnglish {
		return "OUTPUT LANGUAGE: ENGLISH ONLY. Speak naturally in English suitable for kids."
	}
	return "OUTPUT LANGUAGE: ARABIC. Speak in simple, clear Arabic (Modern Standard or White Dialect)."
}

func complexityInstructions(g domain.Grade) string {
	switch {
	case g <= domain.Grade2:
		return beginnerInstructions
	case g <= domain.Grade4:
		return intermediateInstructions
	default:
		return advancedInstructions
	}
}

// lessonContextPrompt anchors a request on the learner's grade and topic.
// Labels are given in Arabic, the curriculum's language; the system
// instruction decides the output language.
func lessonContextPrompt(lc domain.LessonContext) string {
	return fmt.Sprintf("My grade is %s. The topic is %q.",
		domain.GradeLabel(lc.Grade, domain.LangArabic),
		domain.TopicLabel(lc.Topic, domain.LangArabic))
}

func explainPrompt(req domain.ExplainRequest) string {
	if req.Query != "" {
		return req.Query + ". Explain this to me."
	}
	return fmt.Sprintf("Explain the lesson about %q. Give me examples from daily life.",
		domain.TopicLabel(req.Topic, domain.LangArabic))
}

const voiceQuestionPrompt = "Listen to my question and answer me."

func storyPrompt(lc domain.LessonContext) string {
	topic := domain.TopicLabel(lc.Topic, lc.Language)
	if lc.Language == domain.LangEnglish {
		return fmt.Sprintf("Tell me a very short, fun sci-fi story explaining %q for a child. Start with \"Once upon a time...\"", topic)
	}
	return fmt.Sprintf("احكِ لي قصة خيال علمي قصيرة جداً وممتعة تشرح \"%s\" لطفل. ابدأ بـ \"كان يا مكان...\"", topic)
}

func homeworkPrompt(req domain.HomeworkRequest) string {
	grade := domain.GradeLabel(req.Grade, req.Language)
	if req.Language == domain.LangEnglish {
		return fmt.Sprintf("I am in %s. This is my science homework. Correct it gently. If correct, encourage me. If wrong, explain why simply.", grade)
	}
	return fmt.Sprintf("أنا طالب في %s. هذه صورة واجبي المنزلي في العلوم. صحح الإجابة بلطف. إذا كانت صحيحة شجعني. إذا كانت خاطئة، اشرح لي الصواب ببساطة.", grade)
}

func quizPrompt(req domain.QuizRequest) string {
	langReq := "in Arabic"
	if req.Language == domain.LangEnglish {
		langReq = "in English"
	}
	return fmt.Sprintf(`
Create a short quiz of %d questions about %q for %q.
The questions must be %s and suitable for the age group.
Return the result as JSON only.
`, req.Count, domain.TopicLabel(req.Topic, domain.LangArabic), domain.GradeLabel(req.Grade, domain.LangArabic), langReq)
}

func imagePrompts(topic string) []string {
	return []string{
		fmt.Sprintf(primaryImagePrompt, topic),
		fmt.Sprintf(secondaryImagePrompt, topic),
	}
}

// TruncateForSpeech cuts text to limit runes, marking the cut with "...".
func TruncateForSpeech(text string, limit int) string {
	if limit <= 0 {
		limit = DefaultSpeechCharLimit
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
