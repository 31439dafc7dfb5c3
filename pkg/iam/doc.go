// Package iam holds the identity side of monarch: projects, end users,
// credentials and the tokens that tie them together.
//
// # Overview
//
//   - iam/project: tenant projects and their API keys (X-API-Key gate)
//   - iam/user: project-scoped end users, password and federated identities
//   - iam/auth: JWT access tokens, rotating refresh tokens, middleware, audit
//   - iam/otp: email one-time codes (Redis or in-memory challenges)
//
// # Architecture
//
//	HTTP Handler  →  Service Layer  →  Repository Interface  →  Infrastructure (Postgres/Redis/memory)
//
// Each sub-domain exposes its own error registry ("PROJECT", "USER", "AUTH", "OTP")
// and the infra packages pick the backend from STORE_DRIVER and REDIS_ENABLED.
//
// # Request flow
//
// Every /auth and /db route first passes RequireProject, which hashes the
// X-API-Key header and resolves the owning project. Routes that act on behalf
// of an end user then pass RequireUser, which verifies the bearer access token
// and rejects tokens minted for a different project.
//
//	app.Use(...)
//	authHandlers.RegisterRoutes(app, middleware)   // /auth/*
//	docHandlers.RegisterRoutes(app, middleware)    // /db/*
//
// # Credentials
//
// An end user is identified by (project, email). The same email registered in
// two projects yields two unrelated users. A user may hold any mix of:
//
//  1. Password: bcrypt hash, set on /auth/register.
//  2. Google: a verified ID token links the Google subject on first use.
//  3. OTP: a 6 digit code mailed through notifx; proves the email.
//
// All three produce the same pair: a short-lived HS256 access token carrying
// user_id and project_id, and an opaque refresh token stored only as a SHA-256
// hash. Refresh rotates: the presented token is revoked atomically and a new
// pair is issued, so a replayed refresh token fails.
//
// # Errors
//
// Services return *errx.Error values; httpx.ErrorHandler renders them as
//
//	{"error": "...", "code": "AUTH_INVALID_CREDENTIALS", "type": "UNAUTHORIZED", "status": 401}
//
// Login failures never reveal whether the email exists.
package iam
