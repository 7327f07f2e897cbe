package maven

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteRepositoriesPreserveOrder(t *testing.T) {
	var props Properties
	require.NoError(t, json.Unmarshal([]byte(`{
		"remoteRepositories": {
			"zeta": {"url": "https://zeta.example.com"},
			"alpha": {"url": "https://alpha.example.com", "policy": {"updatePolicy": "never"}},
			"mid": {"url": "https://mid.example.com", "auth": {"username": "u", "password": "p"}}
		}
	}`), &props))

	require.Len(t, props.RemoteRepositories, 3)
	assert.Equal(t, "zeta", props.RemoteRepositories[0].ID)
	assert.Equal(t, "alpha", props.RemoteRepositories[1].ID)
	assert.Equal(t, "mid", props.RemoteRepositories[2].ID)
	assert.Equal(t, UpdatePolicyNever, props.RemoteRepositories[1].Policy.UpdatePolicy)
	assert.Equal(t, "u", props.RemoteRepositories[2].Auth.Username)
	assert.True(t, props.IncludesDefaultRemoteRepos())

	data, err := json.Marshal(props.RemoteRepositories)
	require.NoError(t, err)
	var again RemoteRepositories
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, props.RemoteRepositories, again)
}

func TestRemoteRepositoriesListForm(t *testing.T) {
	var repos RemoteRepositories
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"b","url":"https://b"},{"id":"a","url":"https://a"}]`), &repos))
	require.Len(t, repos, 2)
	assert.Equal(t, "b", repos[0].ID)

	repo, ok := repos.Get("a")
	require.True(t, ok)
	assert.Equal(t, "https://a", repo.URL)
	_, ok = repos.Get("c")
	assert.False(t, ok)
}

func TestRemoteRepositoriesRejectsConflictingID(t *testing.T) {
	var repos RemoteRepositories
	require.Error(t, json.Unmarshal([]byte(`{"a":{"id":"b","url":"https://a"}}`), &repos))
	require.Error(t, json.Unmarshal([]byte(`"central"`), &repos))
}

func TestPropertiesValidate(t *testing.T) {
	valid := Properties{RemoteRepositories: RemoteRepositories{{ID: "a", URL: "https://a"}}}
	require.NoError(t, valid.Validate())

	for name, props := range map[string]Properties{
		"duplicate id":      {RemoteRepositories: RemoteRepositories{{ID: "a", URL: "https://a"}, {ID: "a", URL: "https://b"}}},
		"missing url":       {RemoteRepositories: RemoteRepositories{{ID: "a"}}},
		"missing id":        {RemoteRepositories: RemoteRepositories{{URL: "https://a"}}},
		"checksum policy":   {ChecksumPolicy: "strict"},
		"update policy":     {UpdatePolicy: "hourly"},
		"repository policy": {RemoteRepositories: RemoteRepositories{{ID: "a", URL: "https://a", SnapshotPolicy: &RepositoryPolicy{UpdatePolicy: "sometimes"}}}},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, props.Validate())
		})
	}
}

func TestDefaultRemoteRepositories(t *testing.T) {
	defaults := DefaultRemoteRepositories()
	require.Len(t, defaults, 1)
	assert.Equal(t, CentralID, defaults[0].ID)
	assert.Equal(t, CentralURL, defaults[0].URL)

	defaults[0].URL = "changed"
	assert.Equal(t, CentralURL, DefaultRemoteRepositories()[0].URL)
}
