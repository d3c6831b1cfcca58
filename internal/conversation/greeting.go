// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"fmt"
	"strings"

	"github.com/jeranaias/handbook-tui/internal/model"
)

// DefaultAssistantName is the name used in the greeting.
const DefaultAssistantName = "Emma"

// SampleQuestions are offered as actions on the greeting.
var SampleQuestions = []string{
	"What are the maximum number of unexcused absences before getting dropped from a course?",
	"How many tardies equal one absence?",
	"What is the procedure for getting permission to miss a class for extra-curricular activities?",
}

const greetingTemplate = "Hi there! I'm %s, your friendly UIC chatbot assistant. " +
	"I'm here to help you with any questions or concerns you may have as a student at the " +
	"University of the Immaculate Conception. Let's work together to uphold our values of " +
	"faith, excellence, and service. Have a great day!"

// Greeting builds the seed message with the sample questions attached.
func Greeting(name string) model.Message {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultAssistantName
	}
	msg := model.NewAssistantMessage(fmt.Sprintf(greetingTemplate, name))
	for _, q := range SampleQuestions {
		msg.Actions = append(msg.Actions, model.NewQuestionAction(q))
	}
	return msg
}

// NewSeededTranscript creates a transcript whose seed is the greeting.
func NewSeededTranscript(name string) *model.Transcript {
	return model.NewTranscript(Greeting(name))
}
