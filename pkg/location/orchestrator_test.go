/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

var errSourceDown = errors.New("source down")

// funcSource adapts a function to the Source interface.
type funcSource struct {
	name string
	poll func(ctx context.Context) ([]models.LocationRecord, error)
}

func (f *funcSource) Name() string { return f.name }

func (f *funcSource) Poll(ctx context.Context) ([]models.LocationRecord, error) {
	return f.poll(ctx)
}

func staticSource(name string, records ...models.LocationRecord) *funcSource {
	return &funcSource{
		name: name,
		poll: func(context.Context) ([]models.LocationRecord, error) {
			return records, nil
		},
	}
}

func TestMergeRecord_KeepsKnownIPv4(t *testing.T) {
	merged := make(map[string]models.LocationRecord)

	MergeRecord(merged, &models.LocationRecord{DeviceMAC: "m1", IPv4: "10.0.0.5"})
	MergeRecord(merged, &models.LocationRecord{DeviceMAC: "m1", RemoteMAC: "aa:bb"})

	require.Len(t, merged, 1)
	assert.Equal(t, "10.0.0.5", merged["m1"].IPv4)
	assert.Equal(t, "aa:bb", merged["m1"].RemoteMAC)
}

func TestMergeRecord_LaterRecordWins(t *testing.T) {
	merged := make(map[string]models.LocationRecord)

	MergeRecord(merged, &models.LocationRecord{DeviceMAC: "m1", IPv4: "10.0.0.5", Location: "Lab", RemoteIP: "10.0.0.2"})
	MergeRecord(merged, &models.LocationRecord{DeviceMAC: "m1", IPv4: "10.0.0.6"})

	assert.Equal(t, models.LocationRecord{DeviceMAC: "m1", IPv4: "10.0.0.6"}, merged["m1"])
}

func TestMergeRecord_DropsEmptyMAC(t *testing.T) {
	merged := make(map[string]models.LocationRecord)

	MergeRecord(merged, &models.LocationRecord{IPv4: "10.0.0.5"})

	assert.Empty(t, merged)
}

func TestOrchestrator_RunCycle(t *testing.T) {
	orch := NewOrchestrator(time.Second, nil, logger.NewTestLogger())

	sources := []Source{
		staticSource("controller", models.LocationRecord{DeviceMAC: "m1", IPv4: "10.0.0.5"}),
		&funcSource{name: "broken", poll: func(context.Context) ([]models.LocationRecord, error) {
			return []models.LocationRecord{{DeviceMAC: "m9"}}, errSourceDown
		}},
		staticSource("switch", models.LocationRecord{DeviceMAC: "m1", RemoteIP: "10.0.0.2", Location: "Lab"}),
	}

	merged := orch.RunCycle(context.Background(), sources)

	require.Len(t, merged, 1)
	assert.Equal(t, models.LocationRecord{
		DeviceMAC: "m1",
		IPv4:      "10.0.0.5",
		RemoteIP:  "10.0.0.2",
		Location:  "Lab",
	}, merged["m1"])
}

func TestOrchestrator_SourceIgnoringContextDoesNotBlock(t *testing.T) {
	metrics := NewInMemoryMetrics(logger.NewTestLogger())
	orch := NewOrchestrator(50*time.Millisecond, metrics, logger.NewTestLogger())

	release := make(chan struct{})
	defer close(release)

	hung := &funcSource{name: "hung", poll: func(context.Context) ([]models.LocationRecord, error) {
		<-release
		return []models.LocationRecord{{DeviceMAC: "late"}}, nil
	}}

	start := time.Now()
	merged := orch.RunCycle(context.Background(), []Source{
		hung,
		staticSource("fast", models.LocationRecord{DeviceMAC: "m1"}),
	})

	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, merged, "m1")
	assert.NotContains(t, merged, "late")

	sources := metrics.GetMetrics()["sources"].(map[string]interface{})
	assert.Equal(t, 1, sources["timeouts"].(map[string]int)["hung"])
	assert.Equal(t, 1, sources["successes"].(map[string]int)["fast"])
}

func TestOrchestrator_ContextAwareTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)

	src := NewMockSource(ctrl)
	src.EXPECT().Name().Return("slow").AnyTimes()
	src.EXPECT().Poll(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]models.LocationRecord, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	metrics := NewInMemoryMetrics(logger.NewTestLogger())
	orch := NewOrchestrator(20*time.Millisecond, metrics, logger.NewTestLogger())

	merged := orch.RunCycle(context.Background(), []Source{src})

	assert.Empty(t, merged)

	sources := metrics.GetMetrics()["sources"].(map[string]interface{})
	assert.Equal(t, 1, sources["timeouts"].(map[string]int)["slow"])
}

func TestOrchestrator_NoSources(t *testing.T) {
	orch := NewOrchestrator(0, nil, logger.NewTestLogger())

	assert.Empty(t, orch.RunCycle(context.Background(), nil))
}
