// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package aitools defines the contract with the AI collaborator that turns
lecture text into study material and lecture titles into thumbnails.

The portal never talks to a model directly. A [Generator] is either the
[Disabled] stand-in or a [Remote] client of a generation service.
*/
package aitools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/taibuivan/planx/internal/platform/apperr"
	"github.com/taibuivan/planx/internal/platform/constants"
)

const (
	// QuizSize is the number of questions requested per quiz.
	QuizSize = 20
	// FlashcardTarget is the number of flashcards requested per deck.
	FlashcardTarget = 30
	// minOptions is the smallest option list a question may carry.
	minOptions = 2
)

// MCQ is a multiple-choice question.
type MCQ struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Flashcard is a front/back study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Generator produces study material.
type Generator interface {
	// Available reports whether generation is configured.
	Available() bool
	GenerateQuiz(context context.Context, text string) ([]MCQ, error)
	GenerateFlashcards(context context.Context, text string) ([]Flashcard, error)
	// GenerateThumbnail returns one image as a data URI.
	GenerateThumbnail(context context.Context, title string) (string, error)
}

// Truncate cuts text to [constants.AITextBudget] characters without
// splitting a multi-byte character.
func Truncate(text string) string {
	count := 0
	for index := range text {
		if count == constants.AITextBudget {
			return text[:index]
		}
		count++
	}
	return text
}

// ValidateQuiz rejects malformed generated questions.
func ValidateQuiz(questions []MCQ) error {
	if len(questions) == 0 {
		return fmt.Errorf("aitools: empty quiz")
	}
	for index, question := range questions {
		switch {
		case strings.TrimSpace(question.Question) == "":
			return fmt.Errorf("aitools: question %d has no text", index)
		case len(question.Options) < minOptions:
			return fmt.Errorf("aitools: question %d has %d options", index, len(question.Options))
		case !slices.Contains(question.Options, question.CorrectAnswer):
			return fmt.Errorf("aitools: question %d answer is not among its options", index)
		}
	}
	return nil
}

// ValidateFlashcards rejects malformed generated cards.
func ValidateFlashcards(cards []Flashcard) error {
	if len(cards) == 0 {
		return fmt.Errorf("aitools: empty deck")
	}
	for index, card := range cards {
		if strings.TrimSpace(card.Front) == "" || strings.TrimSpace(card.Back) == "" {
			return fmt.Errorf("aitools: card %d is incomplete", index)
		}
	}
	return nil
}

// # Disabled

// errDisabled is returned by every [Disabled] operation.
var errDisabled = apperr.ServiceUnavailable("AI study tools are not available.")

// Disabled is the generator used when no AI endpoint is configured.
type Disabled struct{}

func (Disabled) Available() bool { return false }

func (Disabled) GenerateQuiz(context.Context, string) ([]MCQ, error) {
	return nil, errDisabled
}

func (Disabled) GenerateFlashcards(context.Context, string) ([]Flashcard, error) {
	return nil, errDisabled
}

func (Disabled) GenerateThumbnail(context.Context, string) (string, error) {
	return "", errDisabled
}
