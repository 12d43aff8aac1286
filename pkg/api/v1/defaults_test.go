package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSpec_SetDefaults(t *testing.T) {
	spec := BuildSpec{
		Sites: []Site{{Name: "spotify"}},
		Packages: []Package{
			{Name: "cef-78", Site: "spotify", Version: 78},
		},
	}
	spec.SetDefaults()

	require.NotNil(t, spec.Sites[0].MinMajor)
	assert.EqualValues(t, DefaultMinMajor, *spec.Sites[0].MinMajor)

	p := spec.Packages[0]
	assert.EqualValues(t, RevisionMajor, p.DebianRevision)
	assert.EqualValues(t, DefaultSourceName, p.SourceName)
	assert.EqualValues(t, DefaultVersionFile, p.VersionFile)
	assert.EqualValues(t, "${version}", p.Values[DefaultABIKey])
	assert.EqualValues(t, DefaultPublishCommand, spec.Publish.Command)
	assert.EqualValues(t, DefaultNoUploadFlag, spec.Publish.NoUploadFlag)

	assert.NoError(t, spec.Validate())
}

func TestBuildSpec_Validate(t *testing.T) {
	var cases = []struct {
		name string
		spec BuildSpec
		ok   bool
	}{
		{
			"unknown site",
			BuildSpec{
				Packages: []Package{{Name: "cef-78", Site: "nowhere", Version: 78}},
			},
			false,
		},
		{
			"alias collides with name",
			BuildSpec{
				Sites: []Site{{Name: "spotify"}},
				Packages: []Package{
					{Name: "cef-78", Site: "spotify", Version: 78},
					{Name: "cef-79", Alias: "CEF-78", Site: "spotify", Version: 79},
				},
			},
			false,
		},
		{
			"bad revision strategy",
			BuildSpec{
				Sites:    []Site{{Name: "spotify"}},
				Packages: []Package{{Name: "cef-78", Site: "spotify", Version: 78, DebianRevision: "patch"}},
			},
			false,
		},
		{
			"pattern without group",
			BuildSpec{
				Sites:    []Site{{Name: "spotify"}},
				Packages: []Package{{Name: "cef-78", Site: "spotify", Version: 78, VersionPattern: "CEF_VERSION"}},
			},
			false,
		},
		{
			"missing version",
			BuildSpec{
				Sites:    []Site{{Name: "spotify"}},
				Packages: []Package{{Name: "cef-78", Site: "spotify"}},
			},
			false,
		},
		{
			"valid",
			BuildSpec{
				Sites:    []Site{{Name: "spotify"}},
				Packages: []Package{{Name: "cef-78", Alias: "cef", Site: "spotify", Version: 78}},
			},
			true,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			tt.spec.SetDefaults()
			err := tt.spec.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}
