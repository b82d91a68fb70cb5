package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bbnlabs/reliability-planner/internal/artifacts"
	"github.com/bbnlabs/reliability-planner/internal/store/model"
)

func newResultFixture(t *testing.T) (*JobService, *ResultService, *fakeArtifacts) {
	t.Helper()
	jobs := NewJobService(testConfig(t), testStore(t), &fakeRunner{})
	store := newFakeArtifacts()
	return jobs, NewResultService(jobs, store), store
}

func TestGetResultNotReady(t *testing.T) {
	jobs, results, _ := newResultFixture(t)

	job, err := jobs.SubmitSimulation(context.TODO(), []byte(validSubmission))
	require.NoError(t, err)

	_, err = results.GetResult(context.TODO(), job.ID, "")
	var notReady *ErrResultNotReady
	require.ErrorAs(t, err, &notReady)
}

func TestGetResultByLocation(t *testing.T) {
	jobs, results, store := newResultFixture(t)

	job, err := jobs.SubmitSimulation(context.TODO(), []byte(validSubmission))
	require.NoError(t, err)
	_, err = jobs.UpdateJobStatus(context.TODO(), job.ID, model.JobStatusCompleted, nil)
	require.NoError(t, err)

	key := artifacts.ResultKey(model.JobTypeBayesianSimulation, job.ID)
	store.objects[key] = []byte(`{"pfd": 0.00042}`)

	result, err := results.GetResult(context.TODO(), job.ID, "")
	require.NoError(t, err)
	require.Equal(t, ShapeByLocation, result.Shape)
	require.Contains(t, result.Location, key)
	require.Empty(t, result.Data)
}

func TestGetResultInlinePreservesRawText(t *testing.T) {
	jobs, results, artifactStore := newResultFixture(t)

	job, err := jobs.SubmitSimulation(context.TODO(), []byte(validSubmission))
	require.NoError(t, err)
	_, err = jobs.UpdateJobStatus(context.TODO(), job.ID, model.JobStatusCompleted, nil)
	require.NoError(t, err)

	// artifact uploaded under an analysis type; the caller overrides the type
	raw := []byte(`{"pfd":   1.0e-4, "order": ["b", "a"]}`)
	key := artifacts.ResultKey(model.JobTypeUpdatePfd, job.ID)
	artifactStore.objects[key] = raw

	result, err := results.GetResult(context.TODO(), job.ID, model.JobTypeUpdatePfd)
	require.NoError(t, err)
	require.Equal(t, ShapeInline, result.Shape)
	require.Equal(t, key, result.Location)
	require.Equal(t, raw, []byte(result.Data))
}

func TestGetResultArtifactMissingAfterCompletion(t *testing.T) {
	jobs, results, _ := newResultFixture(t)

	job, err := jobs.SubmitSimulation(context.TODO(), []byte(validSubmission))
	require.NoError(t, err)
	_, err = jobs.UpdateJobStatus(context.TODO(), job.ID, model.JobStatusCompleted, nil)
	require.NoError(t, err)

	_, err = results.GetResult(context.TODO(), job.ID, "")
	var missing *ErrArtifactMissing
	require.ErrorAs(t, err, &missing)
}

func TestGetResultFailedJob(t *testing.T) {
	jobs, results, _ := newResultFixture(t)

	job, err := jobs.SubmitSimulation(context.TODO(), []byte(validSubmission))
	require.NoError(t, err)
	msg := "sampler diverged"
	_, err = jobs.UpdateJobStatus(context.TODO(), job.ID, model.JobStatusFailed, &msg)
	require.NoError(t, err)

	_, err = results.GetResult(context.TODO(), job.ID, "")
	var notCompleted *ErrJobNotCompleted
	require.ErrorAs(t, err, &notCompleted)
}

func TestDownloadURL(t *testing.T) {
	jobs, results, store := newResultFixture(t)

	job, err := jobs.SubmitSimulation(context.TODO(), []byte(validSubmission))
	require.NoError(t, err)

	// not yet completed
	_, err = results.DownloadURL(context.TODO(), job.ID)
	var notCompleted *ErrJobNotCompleted
	require.ErrorAs(t, err, &notCompleted)

	_, err = jobs.UpdateJobStatus(context.TODO(), job.ID, model.JobStatusCompleted, nil)
	require.NoError(t, err)

	key := artifacts.ResultKey(model.JobTypeBayesianSimulation, job.ID)
	store.objects[key] = []byte(`{}`)

	url, err := results.DownloadURL(context.TODO(), job.ID)
	require.NoError(t, err)
	require.Contains(t, url, key)
}

func TestListAndGetArtifacts(t *testing.T) {
	_, results, store := newResultFixture(t)

	store.objects["results/update-pfd-x.json"] = []byte(`{"pfd": 0.1}`)
	store.objects["other/ignored.json"] = []byte(`{}`)

	objects, err := results.ListArtifacts(context.TODO(), 10)
	require.NoError(t, err)
	require.Len(t, objects, 1)

	data, err := results.GetArtifactByKey(context.TODO(), "results/update-pfd-x.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"pfd": 0.1}`, string(data))

	_, err = results.GetArtifactByKey(context.TODO(), "results/nope.json")
	var notFound *ErrResourceNotFound
	require.ErrorAs(t, err, &notFound)
}
