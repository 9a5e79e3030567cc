package main

import (
	"context"
	"datalingua/internal/app"
	"datalingua/internal/config"
	"datalingua/internal/engine"
	"datalingua/internal/logger"
	"datalingua/internal/model"
	"datalingua/internal/repository"
	"time"

	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := app.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal(err)
	}
	defer client.Disconnect(ctx)

	surveys := repository.NewSurveyRepo(client.Database(cfg.Mongo.Database))

	survey := languageSurvey()
	if err := engine.Validate(survey); err != nil {
		logger.Fatalf("seed survey is invalid: %v", err)
	}

	id, err := surveys.Create(ctx, survey)
	if err != nil {
		logger.Fatalf("Failed to insert survey: %v", err)
	}

	logger.WithFields(logger.Fields{"id": id, "shareableId": survey.ShareableID}).
		Infof("Successfully created survey '%s'", survey.Title)
}

func languageSurvey() *model.Survey {
	now := time.Now()
	return &model.Survey{
		Title:         "Home Language Use",
		Description:   "Which languages you speak, where, and how confident you feel.",
		ShareableID:   uuid.New().String(),
		CreatedBy:     "admin",
		CreatedByType: model.CreatorAdmin,
		Sections: []model.Section{
			{
				ID:    "section-1",
				Title: "Background",
				Order: 1,
				Questions: []model.Question{
					{
						ID:       "multilingual",
						Type:     model.QuestionMultipleChoice,
						Prompt:   "Do you speak more than one language at home?",
						Options:  []string{"Yes", "No"},
						Required: true,
					},
					{
						ID:       "languages",
						Type:     model.QuestionMultipleChoice,
						Prompt:   "Which languages do you speak at home?",
						Options:  []string{"English", "Spanish", "Tagalog", "Mandarin", "Other"},
						Required: true,
						MultipleChoiceSettings: &model.MultipleChoiceSettings{
							AllowMultipleAnswers: true,
							RandomizeOrder:       true,
						},
						ConditionalLogic: &model.ConditionalLogic{
							DependsOn: "multilingual",
							ShowWhen:  model.ShowWhenValue("Yes"),
							Operator:  model.OperatorEquals,
						},
					},
					{
						ID:     "other-language",
						Type:   model.QuestionShortAnswer,
						Prompt: "Which other language?",
						ConditionalLogic: &model.ConditionalLogic{
							DependsOn: "languages",
							ShowWhen:  model.ShowWhenValue("Other"),
							Operator:  model.OperatorContains,
						},
					},
				},
			},
			{
				ID:    "section-2",
				Title: "Confidence",
				Order: 2,
				Questions: []model.Question{
					{
						ID:       "confidence",
						Type:     model.QuestionLikert,
						Prompt:   "I feel confident reading in my second language.",
						Required: true,
						LikertSettings: &model.LikertSettings{
							ScaleType:   "agreement",
							ScaleSize:   5,
							LeftLabel:   "Strongly disagree",
							RightLabel:  "Strongly agree",
							ShowNumbers: true,
							ShowNeutral: true,
						},
					},
					{
						ID:     "story",
						Type:   model.QuestionLongAnswer,
						Prompt: "Describe a moment when switching languages helped you.",
					},
					{
						ID:            "sample",
						Type:          model.QuestionAudio,
						Prompt:        "Record yourself reading a short sentence in any language.",
						AudioSettings: &model.AudioSettings{CanReRecord: true, MaxDurationMinutes: 2},
					},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
