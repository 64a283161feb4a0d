// Package static provides a mock model provider that replays canned
// findings. It lets the pipeline run end to end, offline and
// deterministically, without live API calls.
package static
