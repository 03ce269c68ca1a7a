// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package debuglog

import (
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/pluraliseseverythings/grakn-sub001/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Configure(t *testing.T) {
	debug := Options{Level: logrus.DebugLevel}
	tests := []struct {
		name     string
		options  Options
		contains []string
	}{
		{
			name:    "debug",
			options: debug,
			contains: []string{
				" level=debug ",
				` msg="Initialized Logrus"`,
				" forceColors=false",
			},
		},
		{
			name:    "debug/UTC_timestamp",
			options: debug,
			contains: []string{
				` UTC"`,
			},
		},
		{
			name:    "debug/relative_filenames",
			options: debug,
			contains: []string{
				` file="util/debuglog/setup.go:`,
			},
		},
		{
			name: "forceColors",
			options: Options{
				ForceColors: true,
				Level:       logrus.DebugLevel,
			},
			contains: []string{
				"\x1b[37mDEBU\x1b[0m",
				"\x1b[37mforceColors\x1b[0m=true",
			},
		},
	}

	// Ensure CLICOLOR_FORCE isn't set, as it would cause the test to fail.
	value, isSet := os.LookupEnv("CLICOLOR_FORCE")
	if isSet {
		assert.NoError(t, os.Unsetenv("CLICOLOR_FORCE"))
		defer func() {
			assert.NoError(t, os.Setenv("CLICOLOR_FORCE", value))
		}()
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)
			logger := logrus.New()
			var buf strings.Builder
			logger.Out = &buf
			options := test.options
			options.Logger = logger
			Configure(options)
			output := buf.String()
			for _, needle := range test.contains {
				assert.Contains(output, needle, `
Go output: %#v
Go needle: %#v`,
					output, needle)
			}
		})
	}
}

func Test_Configure_defaultLevel(t *testing.T) {
	logger := logrus.New()
	var buf strings.Builder
	logger.Out = &buf
	Configure(Options{Logger: logger})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.Empty(t, buf.String())
	logger.Info("hello")
	assert.Contains(t, buf.String(), ` msg=hello`)
}

func Test_OptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, Options{}, opts)

	opts, err = OptionsFromConfig(&config.Logging{Level: "warn", ForceColors: true})
	require.NoError(t, err)
	assert.Equal(t, Options{Level: logrus.WarnLevel, ForceColors: true}, opts)

	_, err = OptionsFromConfig(&config.Logging{Level: "chatty"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "invalid logging level")
	}
}

func Test_filenameHook(t *testing.T) {
	assert := assert.New(t)
	_, thisFile, _, _ := runtime.Caller(0)
	tests := []struct {
		in       string
		expected string
	}{
		{
			in:       thisFile,
			expected: "util/debuglog/setup_test.go",
		},
		{
			in:       "/some/other/path",
			expected: "/some/other/path",
		},
	}
	hook := newFilenameHook()
	logger := logrus.New()
	logger.SetReportCaller(true)
	for _, test := range tests {
		entry := logrus.Entry{
			Logger: logger,
			Caller: &runtime.Frame{
				File: test.in,
			},
		}
		assert.True(entry.HasCaller(), "test should set up entry.Caller")
		assert.NoError(hook.Fire(&entry))
		assert.Equal(test.expected, entry.Caller.File, "input: %v", test.in)
	}
}
