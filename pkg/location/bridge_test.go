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

var errBrokerDown = errors.New("broker down")

const testTopic = "location/clients"

func runBridge(t *testing.T, b *Bridge) (cancel func()) {
	t.Helper()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		assert.NoError(t, b.Run(ctx))
	}()

	return func() {
		stop()
		<-done
	}
}

func TestBridge_PublishesSnapshotOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := NewMockPublisher(ctrl)
	handoff := NewHandoff()

	table := []models.LocationRecord{{DeviceMAC: "m1", RemoteMAC: "r1"}}
	want, err := models.EncodeTable(table)
	require.NoError(t, err)

	published := make(chan struct{})

	pub.EXPECT().Pump(gomock.Any()).Return(nil).AnyTimes()
	pub.EXPECT().Publish(gomock.Any(), testTopic, want).DoAndReturn(
		func(ctx context.Context, _ string, _ []byte) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			close(published)

			return nil
		}).Times(1)

	handoff.Offer(table)

	b := NewBridge(handoff, pub, BridgeConfig{Topic: testTopic, PumpTimeout: 10 * time.Millisecond}, nil, logger.NewTestLogger())
	stop := runBridge(t, b)

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot was not published")
	}

	// a few more idle iterations must not publish again
	time.Sleep(50 * time.Millisecond)
	stop()
}

func TestBridge_PublishFailureKeepsPumping(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := NewMockPublisher(ctrl)
	handoff := NewHandoff()

	attempts := make(chan struct{}, 2)
	pumpedAfterFailure := make(chan struct{})

	var failed bool

	pub.EXPECT().Publish(gomock.Any(), testTopic, gomock.Any()).DoAndReturn(
		func(context.Context, string, []byte) error {
			attempts <- struct{}{}
			if !failed {
				failed = true
				return errBrokerDown
			}

			return nil
		}).Times(2)

	var signalled bool

	pub.EXPECT().Pump(gomock.Any()).DoAndReturn(func(context.Context) error {
		if failed && !signalled {
			signalled = true
			close(pumpedAfterFailure)
		}

		return nil
	}).AnyTimes()

	metrics := NewInMemoryMetrics(logger.NewTestLogger())
	b := NewBridge(handoff, pub, BridgeConfig{Topic: testTopic, PumpTimeout: 10 * time.Millisecond}, metrics, logger.NewTestLogger())
	stop := runBridge(t, b)
	defer stop()

	handoff.Offer([]models.LocationRecord{{DeviceMAC: "m1", RemoteMAC: "r1"}})
	<-attempts

	select {
	case <-pumpedAfterFailure:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not run after a failed publish")
	}

	handoff.Offer([]models.LocationRecord{{DeviceMAC: "m1", RemoteMAC: "r2"}})

	select {
	case <-attempts:
	case <-time.After(2 * time.Second):
		t.Fatal("next snapshot was not published")
	}

	stop()

	publish := metrics.GetMetrics()["publish"].(map[string]interface{})
	assert.Equal(t, 1, publish["failures"])
	assert.Equal(t, 1, publish["successes"])
}

func TestBridge_SnapshotEndsIdleWait(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := NewMockPublisher(ctrl)
	handoff := NewHandoff()

	pumped := make(chan struct{}, 1)
	published := make(chan struct{})

	pub.EXPECT().Pump(gomock.Any()).DoAndReturn(func(context.Context) error {
		select {
		case pumped <- struct{}{}:
		default:
		}

		return nil
	}).AnyTimes()
	pub.EXPECT().Publish(gomock.Any(), testTopic, gomock.Any()).DoAndReturn(
		func(context.Context, string, []byte) error {
			close(published)
			return nil
		})

	b := NewBridge(handoff, pub, BridgeConfig{Topic: testTopic, PumpTimeout: time.Minute}, nil, logger.NewTestLogger())
	stop := runBridge(t, b)
	defer stop()

	<-pumped

	start := time.Now()
	handoff.Offer([]models.LocationRecord{{DeviceMAC: "m1", RemoteMAC: "r1"}})

	select {
	case <-published:
		assert.Less(t, time.Since(start), 5*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot offered during the idle wait was not published early")
	}
}
