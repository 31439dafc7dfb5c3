package jobxredis

import (
	"net/http"

	"github.com/hypeframe/monarch/pkg/errx"
)

var redisErrors = errx.NewRegistry("JOBX_REDIS")

var (
	ErrEnqueue   = redisErrors.Register("ENQUEUE", errx.TypeExternal, http.StatusInternalServerError, "Redis enqueue failed")
	ErrDequeue   = redisErrors.Register("DEQUEUE", errx.TypeExternal, http.StatusInternalServerError, "Redis dequeue failed")
	ErrGetJob    = redisErrors.Register("GET_JOB", errx.TypeExternal, http.StatusInternalServerError, "Redis get job failed")
	ErrComplete  = redisErrors.Register("COMPLETE", errx.TypeExternal, http.StatusInternalServerError, "Redis complete failed")
	ErrFail      = redisErrors.Register("FAIL", errx.TypeExternal, http.StatusInternalServerError, "Redis fail failed")
	ErrRetry     = redisErrors.Register("RETRY", errx.TypeExternal, http.StatusInternalServerError, "Redis retry failed")
	ErrPromote   = redisErrors.Register("PROMOTE", errx.TypeExternal, http.StatusInternalServerError, "Redis promote failed")
	ErrNotFound  = redisErrors.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Job not found in Redis")
	ErrMarshal   = redisErrors.Register("MARSHAL", errx.TypeInternal, http.StatusInternalServerError, "Failed to marshal job data")
	ErrUnmarshal = redisErrors.Register("UNMARSHAL", errx.TypeInternal, http.StatusInternalServerError, "Failed to unmarshal job data")
)
