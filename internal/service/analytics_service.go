package service

import (
	"context"
	"datalingua/internal/cache"
	"datalingua/internal/engine"
	"datalingua/internal/logger"
	"datalingua/internal/model"
	"datalingua/internal/repository"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
)

const sampleAnswers = 3

// AnalyticsService computes the researcher dashboard and response segments
type AnalyticsService struct {
	surveyRepo     repository.SurveyRepo
	responseRepo   repository.ResponseRepo
	analyticsCache cache.AnalyticsCache
	now            func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(surveyRepo repository.SurveyRepo, responseRepo repository.ResponseRepo, analyticsCache cache.AnalyticsCache) *AnalyticsService {
	return &AnalyticsService{
		surveyRepo:     surveyRepo,
		responseRepo:   responseRepo,
		analyticsCache: analyticsCache,
		now:            time.Now,
	}
}

func (s *AnalyticsService) load(ctx context.Context, actor Actor, surveyID string) (*model.Survey, []*model.Response, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, nil, err
	}
	if survey == nil {
		return nil, nil, ErrNotFound
	}
	if !actor.canManage(survey) {
		return nil, nil, ErrForbidden
	}
	responses, err := s.responseRepo.GetBySurvey(ctx, surveyID)
	if err != nil {
		return nil, nil, err
	}
	return survey, responses, nil
}

// Dashboard returns the survey's analytics, served from cache when fresh
func (s *AnalyticsService) Dashboard(ctx context.Context, actor Actor, surveyID string) (*model.SurveyAnalytics, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrNotFound
	}
	if !actor.canManage(survey) {
		return nil, ErrForbidden
	}

	cached, err := s.analyticsCache.Get(ctx, surveyID)
	if err != nil {
		logger.WithError(err).Warn("analytics cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	responses, err := s.responseRepo.GetBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	analytics := Compute(survey, responses, s.now())
	if err := s.analyticsCache.Set(ctx, analytics); err != nil {
		logger.WithError(err).Warn("analytics cache write failed")
	}
	return analytics, nil
}

// Compute aggregates responses question by question in survey order
func Compute(survey *model.Survey, responses []*model.Response, now time.Time) *model.SurveyAnalytics {
	eval := engine.NewEvaluator(survey)
	total := len(responses)

	result := &model.SurveyAnalytics{
		SurveyID:          survey.ID,
		TotalResponses:    total,
		QuestionAnalytics: []model.QuestionAnalytics{},
		SubmissionTrend:   trend(responses),
		ComputedAt:        now,
	}
	for _, r := range responses {
		if result.LastResponseAt == nil || r.SubmittedAt.After(*result.LastResponseAt) {
			at := r.SubmittedAt
			result.LastResponseAt = &at
		}
	}

	for _, sec := range eval.Sections() {
		for _, q := range sec.Questions {
			result.TotalQuestions++
			result.QuestionAnalytics = append(result.QuestionAnalytics, analyzeQuestion(q, responses))
		}
	}
	return result
}

func analyzeQuestion(q model.Question, responses []*model.Response) model.QuestionAnalytics {
	qa := model.QuestionAnalytics{QuestionID: q.ID, Question: q.Prompt, Type: q.Type}

	var answers []string
	for _, r := range responses {
		if a, ok := r.AnswerFor(q.ID); ok && strings.TrimSpace(a.Answer) != "" {
			answers = append(answers, a.Answer)
		}
	}
	qa.Responses = len(answers)
	qa.ResponseRate = percent(len(answers), len(responses))

	switch q.Type {
	case model.QuestionMultipleChoice:
		qa.Options = optionCounts(q, answers)
	case model.QuestionLikert:
		qa.ScaleSize = q.ScaleSize()
		qa.ScaleType = q.ScaleType()
		qa.Distribution, qa.AverageScore = likert(q.ScaleSize(), answers)
	case model.QuestionShortAnswer, model.QuestionLongAnswer:
		words := 0
		for _, a := range answers {
			words += len(strings.Fields(a))
		}
		if len(answers) > 0 {
			qa.AverageWordCount = round2(float64(words) / float64(len(answers)))
		}
		n := len(answers)
		if n > sampleAnswers {
			n = sampleAnswers
		}
		qa.SampleAnswers = answers[:n]
	}
	return qa
}

// optionCounts counts each selection of a multi-select answer separately.
// Selections outside the configured options are listed after them.
func optionCounts(q model.Question, answers []string) []model.OptionCount {
	counts := make(map[string]int)
	var extra []string
	for _, a := range answers {
		for _, sel := range engine.ParseWire(a, q.AllowsMultiple()).Selections() {
			if counts[sel] == 0 && !contains(q.Options, sel) {
				extra = append(extra, sel)
			}
			counts[sel]++
		}
	}

	out := make([]model.OptionCount, 0, len(q.Options)+len(extra))
	for _, opt := range append(append([]string{}, q.Options...), extra...) {
		out = append(out, model.OptionCount{
			Option:     opt,
			Count:      counts[opt],
			Percentage: percent(counts[opt], len(answers)),
		})
	}
	return out
}

func likert(size int, answers []string) ([]model.ScoreCount, float64) {
	counts := make([]int, size+1)
	sum, n := 0, 0
	for _, a := range answers {
		score, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil || score < 1 || score > size {
			continue
		}
		counts[score]++
		sum += score
		n++
	}

	dist := make([]model.ScoreCount, 0, size)
	for score := 1; score <= size; score++ {
		dist = append(dist, model.ScoreCount{Score: score, Count: counts[score], Percentage: percent(counts[score], n)})
	}
	if n == 0 {
		return dist, 0
	}
	return dist, round2(float64(sum) / float64(n))
}

func trend(responses []*model.Response) []model.TrendPoint {
	byDay := make(map[string]int)
	for _, r := range responses {
		byDay[r.SubmittedAt.UTC().Format("2006-01-02")]++
	}
	points := make([]model.TrendPoint, 0, len(byDay))
	for day, n := range byDay {
		points = append(points, model.TrendPoint{Date: day, Count: n})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return round2(float64(n) * 100 / float64(of))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// filterEnv is what a filter expression sees for each response
func filterEnv(r *model.Response, eval *engine.Evaluator) map[string]interface{} {
	answers := make(map[string]string)
	selections := make(map[string][]string)
	for _, a := range r.Answers {
		answers[a.QuestionID] = a.Answer
		multi := false
		if q, ok := eval.Question(a.QuestionID); ok {
			multi = q.AllowsMultiple()
		}
		selections[a.QuestionID] = engine.ParseWire(a.Answer, multi).Selections()
	}
	return map[string]interface{}{
		"answers":      answers,
		"selections":   selections,
		"respondentId": r.RespondentID,
		"submittedAt":  r.SubmittedAt,
	}
}

// Filter returns the responses for which the boolean expression holds, e.g.
// `answers["q1"] == "Yes" && "Blue" in selections["q2"]`
func (s *AnalyticsService) Filter(ctx context.Context, actor Actor, surveyID, expression string) (*model.FilterResult, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("%w: expression is required", ErrBadExpression)
	}
	survey, responses, err := s.load(ctx, actor, surveyID)
	if err != nil {
		return nil, err
	}

	eval := engine.NewEvaluator(survey)
	sample := filterEnv(&model.Response{}, eval)
	program, err := expr.Compile(expression, expr.Env(sample), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadExpression, err)
	}

	result := &model.FilterResult{Expression: expression, Total: len(responses), Responses: []*model.Response{}}
	for _, r := range responses {
		out, err := expr.Run(program, filterEnv(r, eval))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadExpression, err)
		}
		if ok, _ := out.(bool); ok {
			result.Responses = append(result.Responses, r)
		}
	}
	result.Matched = len(result.Responses)
	return result, nil
}
