package upload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confusedbuffalo/phone-report/internal/model"
	"github.com/confusedbuffalo/phone-report/pkg/osm"
)

type mockClient struct {
	elements map[string][]osm.Element
	fetchErr error

	uploadErr  error
	changesets []osm.Changes
	nextID     int64
}

func (m *mockClient) FetchByIDs(_ context.Context, elemType string, _ []int64) ([]osm.Element, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.elements[elemType], nil
}

func (m *mockClient) UploadChangeset(_ context.Context, _ map[string]string, changes osm.Changes) (int64, error) {
	if m.uploadErr != nil {
		return 0, m.uploadErr
	}
	m.changesets = append(m.changesets, changes)
	m.nextID++
	return m.nextID, nil
}

func strptr(s string) *string { return &s }

func bundleWith(edits ...model.SafeEdit) model.SafeEditBundle {
	return model.SafeEditBundle{
		SubdivisionName: "England",
		Edits:           edits,
		TotalSafeEdits:  len(edits),
	}
}

func TestUploadAll_AppliesFixes(t *testing.T) {
	client := &mockClient{elements: map[string][]osm.Element{
		"node": {{Type: "node", ID: 1, Version: 3,
			Tags: map[string]string{"phone": "0207 9460000", "amenity": "pub"}}},
	}}
	u := New(client, "https://example.org/reports", 2, false)

	results := u.UploadAll(context.Background(), []model.SafeEditBundle{bundleWith(
		model.SafeEdit{
			Type:           model.FeatureNode,
			ID:             1,
			InvalidNumbers: map[string]string{"phone": "0207 9460000"},
			SuggestedFixes: map[string]*string{"phone": strptr("+44 20 7946 0000")},
		},
	)})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Uploaded)
	assert.Zero(t, results[0].Skipped)
	assert.Equal(t, int64(1), results[0].ChangesetID)

	require.Len(t, client.changesets, 1)
	require.Len(t, client.changesets[0].Modify, 1)
	mod := client.changesets[0].Modify[0]
	assert.Equal(t, "+44 20 7946 0000", mod.Tags["phone"])
	assert.Equal(t, "pub", mod.Tags["amenity"], "unrelated tags untouched")
}

func TestUploadAll_StaleValueSkipped(t *testing.T) {
	client := &mockClient{elements: map[string][]osm.Element{
		"node": {{Type: "node", ID: 1,
			Tags: map[string]string{"phone": "edited meanwhile"}}},
	}}
	u := New(client, "", 1, false)

	results := u.UploadAll(context.Background(), []model.SafeEditBundle{bundleWith(
		model.SafeEdit{
			Type:           model.FeatureNode,
			ID:             1,
			InvalidNumbers: map[string]string{"phone": "0207 9460000"},
			SuggestedFixes: map[string]*string{"phone": strptr("+44 20 7946 0000")},
		},
	)})
	require.NoError(t, results[0].Err)
	assert.Zero(t, results[0].Uploaded)
	assert.Equal(t, 1, results[0].Skipped)
	assert.Empty(t, client.changesets, "nothing to upload")
}

func TestUploadAll_DeletedFeatureSkipped(t *testing.T) {
	client := &mockClient{elements: map[string][]osm.Element{}}
	u := New(client, "", 1, false)

	results := u.UploadAll(context.Background(), []model.SafeEditBundle{bundleWith(
		model.SafeEdit{
			Type:           model.FeatureWay,
			ID:             9,
			InvalidNumbers: map[string]string{"phone": "0207 9460000"},
			SuggestedFixes: map[string]*string{"phone": strptr("+44 20 7946 0000")},
		},
	)})
	require.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Skipped)
}

func TestUploadAll_NilFixDeletesTag(t *testing.T) {
	client := &mockClient{elements: map[string][]osm.Element{
		"node": {{Type: "node", ID: 1, Tags: map[string]string{
			"phone":         "+44 161 496 0000",
			"contact:phone": "0161 496 0000",
		}}},
	}}
	u := New(client, "", 1, false)

	results := u.UploadAll(context.Background(), []model.SafeEditBundle{bundleWith(
		model.SafeEdit{
			Type:           model.FeatureNode,
			ID:             1,
			InvalidNumbers: map[string]string{"contact:phone": "0161 496 0000"},
			SuggestedFixes: map[string]*string{"contact:phone": nil},
		},
	)})
	require.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Uploaded)

	require.Len(t, client.changesets, 1)
	mod := client.changesets[0].Modify[0]
	assert.NotContains(t, mod.Tags, "contact:phone")
	assert.Equal(t, "+44 161 496 0000", mod.Tags["phone"])
}

func TestUploadAll_FailureIsolation(t *testing.T) {
	failing := &mockClient{fetchErr: assert.AnError}
	ok := &mockClient{elements: map[string][]osm.Element{
		"node": {{Type: "node", ID: 1, Tags: map[string]string{"phone": "0207 9460000"}}},
	}}

	// Two bundles behind one client: first fetch fails, second succeeds.
	client := &switchClient{clients: []*mockClient{failing, ok}}
	u := New(client, "", 1, false)

	edit := model.SafeEdit{
		Type:           model.FeatureNode,
		ID:             1,
		InvalidNumbers: map[string]string{"phone": "0207 9460000"},
		SuggestedFixes: map[string]*string{"phone": strptr("+44 20 7946 0000")},
	}
	results := u.UploadAll(context.Background(), []model.SafeEditBundle{
		bundleWith(edit), bundleWith(edit),
	})
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Equal(t, 1, results[1].Uploaded)
}

// switchClient hands each successive call sequence to the next mock.
type switchClient struct {
	clients []*mockClient
	calls   int
}

func (s *switchClient) FetchByIDs(ctx context.Context, elemType string, ids []int64) ([]osm.Element, error) {
	c := s.clients[s.calls]
	s.calls++
	return c.FetchByIDs(ctx, elemType, ids)
}

func (s *switchClient) UploadChangeset(ctx context.Context, tags map[string]string, changes osm.Changes) (int64, error) {
	return s.clients[s.calls-1].UploadChangeset(ctx, tags, changes)
}

func TestUploadAll_DryRun(t *testing.T) {
	client := &mockClient{elements: map[string][]osm.Element{
		"node": {{Type: "node", ID: 1, Tags: map[string]string{"phone": "0207 9460000"}}},
	}}
	u := New(client, "", 1, true)

	results := u.UploadAll(context.Background(), []model.SafeEditBundle{bundleWith(
		model.SafeEdit{
			Type:           model.FeatureNode,
			ID:             1,
			InvalidNumbers: map[string]string{"phone": "0207 9460000"},
			SuggestedFixes: map[string]*string{"phone": strptr("+44 20 7946 0000")},
		},
	)})
	require.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Uploaded)
	assert.Zero(t, results[0].ChangesetID)
	assert.Empty(t, client.changesets)
}

func TestUploadAll_EmptyBundle(t *testing.T) {
	client := &mockClient{}
	u := New(client, "", 1, false)

	results := u.UploadAll(context.Background(), []model.SafeEditBundle{bundleWith()})
	require.NoError(t, results[0].Err)
	assert.Zero(t, results[0].Uploaded)
	assert.Empty(t, client.changesets)
}
