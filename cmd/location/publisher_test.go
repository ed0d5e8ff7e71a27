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
package main

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
	"github.com/carverauto/serviceradar-location/pkg/natsutil"
)

func TestNewPublisher_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := newPublisher(ctx, nil, logger.NewTestLogger())
	require.ErrorIs(t, err, errMissingBusConfig)

	_, err = newPublisher(ctx, &models.BusConfig{Type: "kafka", URL: "kafka:9092", Topic: "t"}, logger.NewTestLogger())
	require.ErrorIs(t, err, errUnsupportedBusType)

	_, err = newPublisher(ctx, &models.BusConfig{Type: models.BusTypeMQTT, URL: "::", Topic: "t"}, logger.NewTestLogger())
	require.Error(t, err)
}

func TestNewPublisher_NATS(t *testing.T) {
	srv, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)

	go srv.Start()
	t.Cleanup(srv.Shutdown)

	require.True(t, srv.ReadyForConnections(10*time.Second))

	publisher, err := newPublisher(context.Background(), &models.BusConfig{
		Type:  models.BusTypeNATS,
		URL:   srv.ClientURL(),
		Topic: "location.clients",
	}, logger.NewTestLogger())
	require.NoError(t, err)

	assert.IsType(t, &natsutil.Publisher{}, publisher)
	require.NoError(t, publisher.Close())
}
