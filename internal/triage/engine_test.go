package triage

import (
	"context"
	"testing"

	"github.com/caba911/dispatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEmptyDescription(t *testing.T) {
	r := classifyRules("")
	assert.Equal(t, models.CodeGreen, r.Code)
	assert.Equal(t, 1, r.Score)
	assert.Equal(t, models.ForcePolice, r.Type)
}

func TestClassifyDeterministic(t *testing.T) {
	desc := "Robo violento con arma blanca en microcentro"
	r1 := classifyRules(desc)
	r2 := classifyRules(desc)
	assert.Equal(t, r1.Code, r2.Code)
	assert.Equal(t, r1.Score, r2.Score)
	assert.Equal(t, r1.Type, r2.Type)
}

func TestClassifyFireIncident(t *testing.T) {
	r := classifyRules("Incendio en edificio con personas atrapadas")
	assert.Equal(t, models.CodeRed, r.Code)
	assert.Equal(t, models.ForceFire, r.Type)
}

func TestClassifyMajorCollisionReclassifiedAsFire(t *testing.T) {
	// "accidente" (30) + "choque" (30) + "transito" (30) pushes traffic
	// score above 40, which the spec requires reclassifying as fire.
	r := classifyRules("accidente choque transito con heridos")
	assert.Greater(t, r.Score, 40)
	assert.Equal(t, models.ForceFire, r.Type)
}

func TestThresholdBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  models.Code
	}{
		{24, models.CodeGreen},
		{25, models.CodeYellow},
		{59, models.CodeYellow},
		{60, models.CodeRed},
	}
	for _, tc := range tests {
		var code models.Code
		switch {
		case tc.score >= 60:
			code = models.CodeRed
		case tc.score >= 25:
			code = models.CodeYellow
		default:
			code = models.CodeGreen
		}
		assert.Equal(t, tc.want, code, "score %d", tc.score)
	}
}

func TestNewEngineMisconfiguredWithoutCredentials(t *testing.T) {
	_, err := NewEngine(ProviderCloud, nil)
	require.Error(t, err)
}

func TestNewEngineMisconfiguredWithEmptyAPIKey(t *testing.T) {
	client := NewAnthropicTriageClient("", "", 0)
	_, err := NewEngine(ProviderCloud, client)
	require.Error(t, err)
}

func TestEngineRulesProviderClassifiesLocally(t *testing.T) {
	eng, err := NewEngine(ProviderRules, nil)
	require.NoError(t, err)
	result := eng.Classify(context.Background(), "robo en microcentro")
	assert.Equal(t, SourceLocal, result.Source)
}

type fakeFailingCloud struct{}

func (fakeFailingCloud) Classify(ctx context.Context, description string) (Result, error) {
	return Result{}, assert.AnError
}

func TestEngineCloudFailureFallsBackSilently(t *testing.T) {
	eng := &Engine{provider: ProviderCloud, cloud: fakeFailingCloud{}}
	result := eng.Classify(context.Background(), "robo en microcentro")
	assert.Equal(t, SourceLocal, result.Source)
}

func TestSanitizeJSONStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"tipo\":\"policial\",\"codigo\":\"rojo\"}\n```"
	got := sanitizeJSON(raw)
	assert.Equal(t, `{"tipo":"policial","codigo":"rojo"}`, got)
}

func TestSanitizeJSONExtractsFirstObject(t *testing.T) {
	raw := "here is the result: {\"tipo\":\"medico\",\"codigo\":\"verde\"} thanks"
	got := sanitizeJSON(raw)
	assert.Equal(t, `{"tipo":"medico","codigo":"verde"}`, got)
}
