package imagegen

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	SafetyTag = "[EDUCATION-SAFE ONLY]"

	prohibitionClause = "Do NOT include any violence, weapons, blood, nudity, or inappropriate content."
)

// SafetySystemPrompt is sent ahead of every prompt, whatever branch produced it.
var SafetySystemPrompt = []string{
	"You are an educational image generator.",
	"You MUST ONLY generate images that are safe, appropriate, and suitable for an educational platform used by students of all ages.",
	"STRICTLY PROHIBITED content: violence, blood, gore, weapons, fighting, nudity, sexual content, drugs, alcohol, hate speech, horror, self-harm, gambling, or any content inappropriate for a school environment.",
	"If the user's request conflicts with these rules, generate a safe educational alternative instead.",
	"Always prioritize child-safe, educational, and positive imagery.",
}

// DefaultPrompts is the catalog used when neither images nor a prompt were
// sent. Each scene is wrapped in the safety tag and the prohibition clause.
var DefaultPrompts = wrapScenes(defaultScenes)

var defaultScenes = []string{
	"Create a modern classroom with diverse students learning together, educational posters on walls, books on shelves, and a teacher facilitating discussion. Bright and inspiring atmosphere.",
	"Generate a student's study desk with open textbooks, notebooks, laptop, pens, desk lamp, and coffee mug. Include motivational elements and organized learning materials.",
	"Create an educational concept showing books transforming into a tree of knowledge with different subjects as branches (science, math, art, language). Students exploring and light bulbs representing ideas.",
	"Design a learning space with reading corner, group study area, computers, and presentation zone. Show diverse students learning in different ways with educational displays.",
	"Generate a beautiful library with bookshelves, reading nooks, study tables with focused students, natural lighting, and peaceful learning atmosphere.",
	"Create a science lab with students conducting experiments, microscopes, safety equipment, colorful chemicals, educational posters, and teacher guiding discovery learning.",
	"Design an art classroom with students creating artwork, easels, art supplies, displayed student work, and instructor demonstrating techniques. Creative and inspiring environment.",
	"Generate an outdoor education scene with students and teachers in nature, observing plants and insects, taking notes, using magnifying glasses, and learning about ecosystems.",
}

func wrapScenes(scenes []string) []string {
	out := make([]string, len(scenes))
	for i, scene := range scenes {
		out[i] = SafetyTag + " " + scene + " " + prohibitionClause
	}
	return out
}

// Chooser returns an index in [0, n).
type Chooser func(n int) int

// RandomChooser picks uniformly without a fixed seed.
func RandomChooser(n int) int {
	return rand.IntN(n)
}

// PromptBuilder turns the raw user prompt and the number of reference images
// into the instruction sent to the model.
type PromptBuilder struct {
	choose Chooser
}

func NewPromptBuilder(choose Chooser) *PromptBuilder {
	if choose == nil {
		choose = RandomChooser
	}
	return &PromptBuilder{choose: choose}
}

func (b *PromptBuilder) Build(prompt string, imageCount int) string {
	prompt = strings.TrimSpace(prompt)

	if imageCount > 0 {
		if prompt != "" {
			if imageCount == 1 {
				return fmt.Sprintf("%s Using the uploaded image as reference, create an educational illustration: %s Include educational elements like classrooms, books, students, teachers, learning materials, or academic settings while maintaining the visual style of the reference image. %s",
					SafetyTag, prompt, prohibitionClause)
			}
			return fmt.Sprintf("%s Using the %d uploaded images as references, create an educational illustration: %s Combine visual styles from all images and integrate educational themes like learning environments, educational materials, students, teachers, and academic activities. %s",
				SafetyTag, imageCount, prompt, prohibitionClause)
		}
		if imageCount == 1 {
			return fmt.Sprintf("%s Transform this image into an educational context. Add educational elements like books, students, teachers, desks, whiteboards, learning materials, or classroom settings while maintaining the original style and composition. %s",
				SafetyTag, prohibitionClause)
		}
		return fmt.Sprintf("%s Using these %d uploaded images as inspiration, create an educational illustration that combines elements from all references. Include learning environments, educational materials, students engaged in learning activities, and academic settings. %s",
			SafetyTag, imageCount, prohibitionClause)
	}

	if prompt != "" {
		return fmt.Sprintf("%s Create an educational illustration: %s Include learning environments (classroom, library, lab), educational materials (books, computers, supplies), and students or teachers in learning activities. %s",
			SafetyTag, prompt, prohibitionClause)
	}

	return DefaultPrompts[b.choose(len(DefaultPrompts))]
}
