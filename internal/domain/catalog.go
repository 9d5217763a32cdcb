package domain

import "fmt"

// Display strings are kept apart from identifiers: a Grade, Mode or Topic is
// an opaque id, and the tables below render it for a language.

var gradeLabels = map[Grade]map[Language]string{
	Grade1: {LangArabic: "الصف الأول", LangEnglish: "Grade 1"},
	Grade2: {LangArabic: "الصف الثاني", LangEnglish: "Grade 2"},
	Grade3: {LangArabic: "الصف الثالث", LangEnglish: "Grade 3"},
	Grade4: {LangArabic: "الصف الرابع", LangEnglish: "Grade 4"},
	Grade5: {LangArabic: "الصف الخامس", LangEnglish: "Grade 5"},
	Grade6: {LangArabic: "الصف السادس", LangEnglish: "Grade 6"},
}

var modeLabels = map[Mode]map[Language]string{
	ModeExplain:    {LangArabic: "🎧 شرح درس", LangEnglish: "🎧 Explain Lesson"},
	ModeExperiment: {LangArabic: "🧪 قصة علمية", LangEnglish: "🧪 Science Story"},
	ModeQuiz:       {LangArabic: "✏️ اختبار", LangEnglish: "✏️ Take Quiz"},
	ModeHomework:   {LangArabic: "📸 تصحيح واجب", LangEnglish: "📸 Check Homework"},
}

var topicLabels = map[Topic]map[Language]string{
	TopicSenses:            {LangArabic: "الحواس الخمس", LangEnglish: "The Five Senses"},
	TopicLivingNeeds:       {LangArabic: "عالم الحيوان والنبات", LangEnglish: "Animals & Plants"},
	TopicWeatherSeasons:    {LangArabic: "الطقس والفصول", LangEnglish: "Weather & Seasons"},
	TopicMaterials:         {LangArabic: "المواد من حولنا (صلب وسائل)", LangEnglish: "Materials Around Us"},
	TopicHumanBody:         {LangArabic: "أسرار جسم الإنسان", LangEnglish: "Human Body Secrets"},
	TopicSolarSystem:       {LangArabic: "رحلة في الفضاء", LangEnglish: "Journey to Space"},
	TopicEnergyElectricity: {LangArabic: "الكهرباء والطاقة", LangEnglish: "Energy & Electricity"},
	TopicForceMotion:       {LangArabic: "القوة والحركة", LangEnglish: "Force & Motion"},
	TopicEcosystem:         {LangArabic: "البيئة والسلاسل الغذائية", LangEnglish: "Ecosystems"},
}

func lookup[K comparable](table map[K]map[Language]string, key K, lang Language) string {
	byLang, ok := table[key]
	if !ok {
		return ""
	}
	if s, ok := byLang[lang]; ok {
		return s
	}
	return byLang[LangArabic]
}

func GradeLabel(g Grade, lang Language) string { return lookup(gradeLabels, g, lang) }
func ModeLabel(m Mode, lang Language) string   { return lookup(modeLabels, m, lang) }
func TopicLabel(t Topic, lang Language) string { return lookup(topicLabels, t, lang) }

// TextKey names one UI or tutor-persona string.
type TextKey string

const (
	TextWelcomeTitle       TextKey = "welcomeTitle"
	TextWelcomeSubtitle    TextKey = "welcomeSubtitle"
	TextDashboardSub       TextKey = "dashboardSub"
	TextTutorName          TextKey = "tutorName"
	TextStatusReady        TextKey = "statusReady"
	TextStatusTalking      TextKey = "statusTalking"
	TextStatusLoadingAudio TextKey = "statusLoadingAudio"
	TextInputPlaceholder   TextKey = "inputPlaceholder"
	TextBtnImage           TextKey = "btnImage"
	TextBtnSimplify        TextKey = "btnSimplify"
	TextUploadText         TextKey = "uploadText"
	TextLoading            TextKey = "loading"
	TextMicError           TextKey = "micError"
	TextInitLesson         TextKey = "initLesson"
	TextQuizPrep           TextKey = "quizPrep"
	TextQuizQuestion       TextKey = "quizQuestion"
	TextQuizPoints         TextKey = "quizPoints"
	TextQuizFail           TextKey = "quizFailMsg"
	TextHomeworkPrompt     TextKey = "homeworkPrompt"
	TextImageGen           TextKey = "imageGenMsg"
	TextImageDone          TextKey = "imageDoneMsg"
	TextImageFail          TextKey = "imageFailMsg"
	TextUploaded           TextKey = "uploadedMsg"
	TextVoiceMessage       TextKey = "voiceMsg"
	TextSimplifyRequest    TextKey = "simplifyRequest"
	TextStopAudio          TextKey = "stopAudio"
	TextListen             TextKey = "listen"

	// Fallbacks spoken by the tutor when the backend fails.
	TextReplyEmpty         TextKey = "replyEmpty"
	TextConnectionError    TextKey = "connectionError"
	TextHomeworkUnreadable TextKey = "homeworkUnreadable"
	TextHomeworkError      TextKey = "homeworkError"
	TextStoryError         TextKey = "storyError"
)

var texts = map[TextKey]map[Language]string{
	TextWelcomeTitle:       {LangArabic: "أهلاً بك في المدرس الذكي! 👋", LangEnglish: "Welcome to Smart Tutor! 👋"},
	TextWelcomeSubtitle:    {LangArabic: "منهج العلوم العام المبسط للمرحلة الابتدائية", LangEnglish: "General Science Curriculum for Primary School"},
	TextDashboardSub:       {LangArabic: "ماذا تريد أن تتعلم اليوم؟", LangEnglish: "What do you want to learn today?"},
	TextTutorName:          {LangArabic: "المدرس الذكي", LangEnglish: "Smart Tutor"},
	TextStatusReady:        {LangArabic: "مستعد للمساعدة", LangEnglish: "Ready to help"},
	TextStatusTalking:      {LangArabic: "يتحدث الآن...", LangEnglish: "Speaking..."},
	TextStatusLoadingAudio: {LangArabic: "جاري تحضير الصوت... ⏳", LangEnglish: "Preparing voice... ⏳"},
	TextInputPlaceholder:   {LangArabic: "اسأل المدرس الذكي...", LangEnglish: "Ask Smart Tutor..."},
	TextBtnImage:           {LangArabic: "🎨 وريني رسمة", LangEnglish: "🎨 Show Image"},
	TextBtnSimplify:        {LangArabic: "💡 بسط الشرح", LangEnglish: "💡 Simplify"},
	TextUploadText:         {LangArabic: "اضغط هنا لرفع صورة الواجب", LangEnglish: "Click here to upload homework"},
	TextLoading:            {LangArabic: "جاري التحميل...", LangEnglish: "Loading..."},
	TextMicError:           {LangArabic: "الرجاء السماح بالميكروفون", LangEnglish: "Please allow microphone access"},
	TextInitLesson:         {LangArabic: "جاري تحضير الدرس... ⏳", LangEnglish: "Preparing the lesson... ⏳"},
	TextQuizPrep:           {LangArabic: "جاري تحضير الاختبار... 🧠", LangEnglish: "Preparing the quiz... 🧠"},
	TextQuizQuestion:       {LangArabic: "السؤال", LangEnglish: "Question"},
	TextQuizPoints:         {LangArabic: "النقاط", LangEnglish: "Score"},
	TextQuizFail:           {LangArabic: "عذراً، لم أستطع تحضير الاختبار الآن. لنحاول مرة أخرى!", LangEnglish: "Sorry, I couldn't prepare the quiz right now. Let's try again!"},
	TextHomeworkPrompt:     {LangArabic: "أهلاً يا بطل! 📸 صور لي الواجب وارفعه هنا وسأقوم بمساعدتك.", LangEnglish: "Hi Hero! 📸 Snap a picture of your homework and upload it here."},
	TextImageGen:           {LangArabic: "جاري رسم صورتين (عربي وإنجليزي)... 🎨", LangEnglish: "Drawing two images (Arabic & English)... 🎨"},
	TextImageDone:          {LangArabic: "تفضل، هذه نسخة بالعربية وأخرى بالإنجليزية!", LangEnglish: "Here you go! Arabic and English versions."},
	TextImageFail:          {LangArabic: "عذراً، لم أستطع الرسم الآن.", LangEnglish: "Sorry, couldn't draw right now."},
	TextUploaded:           {LangArabic: "قام برفع صورة", LangEnglish: "Uploaded an image"},
	TextVoiceMessage:       {LangArabic: "🎤 ...", LangEnglish: "🎤 ..."},
	TextSimplifyRequest:    {LangArabic: "اشرح لي بمثال أبسط", LangEnglish: "Explain simpler"},
	TextStopAudio:          {LangArabic: "إيقاف الصوت 🔇", LangEnglish: "Stop Audio 🔇"},
	TextListen:             {LangArabic: "استماع", LangEnglish: "Listen"},

	TextReplyEmpty:         {LangArabic: "آسف، حدث خطأ بسيط. هل يمكننا المحاولة مرة أخرى؟", LangEnglish: "Sorry, something went wrong. Try again?"},
	TextConnectionError:    {LangArabic: "واجهت مشكلة في الاتصال. تأكد من الإنترنت!", LangEnglish: "Connection error. Please check your internet."},
	TextHomeworkUnreadable: {LangArabic: "لم أستطع قراءة الواجب بوضوح.", LangEnglish: "Couldn't read the homework clearly."},
	TextHomeworkError:      {LangArabic: "حدث خطأ أثناء فحص الواجب.", LangEnglish: "Error checking homework."},
	TextStoryError:         {LangArabic: "حدث خطأ.", LangEnglish: "Error generating story."},
}

func Text(lang Language, key TextKey) string {
	return lookup(texts, key, lang)
}

// Texts returns the whole string table for a language.
func Texts(lang Language) map[TextKey]string {
	out := make(map[TextKey]string, len(texts))
	for key := range texts {
		out[key] = Text(lang, key)
	}
	return out
}

func DashboardWelcome(g Grade, lang Language) string {
	if lang == LangEnglish {
		return fmt.Sprintf("Hello %s Champion!", GradeLabel(g, lang))
	}
	return fmt.Sprintf("مرحباً بطل %s!", GradeLabel(g, lang))
}

func TopicTitle(g Grade, lang Language) string {
	if lang == LangEnglish {
		return fmt.Sprintf("%s Topics 👇", GradeLabel(g, lang))
	}
	return fmt.Sprintf("مواضيع %s 👇", GradeLabel(g, lang))
}

func QuizSummary(score, total int, lang Language) string {
	if lang == LangEnglish {
		return fmt.Sprintf("Great job! You finished the quiz. Your score: %d / %d. 🎉", score, total)
	}
	return fmt.Sprintf("ممتاز! لقد أنهيت الاختبار. نتيجتك هي %d من %d. 🎉", score, total)
}
