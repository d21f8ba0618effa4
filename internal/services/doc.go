// Package services wraps the external systems stasher depends on.
//
// # YouTube Data API
//
// [Client] is the only path to the API. Each call goes through [Client.Execute], which paces
// requests with a token bucket, charges the [QuotaLedger] and retries transient failures under a
// [RetryPolicy]. Failures surface as [*RemoteError] and match the shared sentinels:
//   - [shared.ErrQuotaExhausted] : daily quota spent, never retried
//   - [shared.ErrTransientRemote] : rate limiting or server errors after the last retry
//   - [shared.ErrEntityNotFound] : the playlist or video is gone or private
//   - [shared.ErrPermanentRemote] : anything else
//
// [OAuthCredentials] loads the client secrets and keeps the user token on disk, saving it again
// whenever it is refreshed.
//
// # Downloads
//
// [YtdlpDownloader] runs yt-dlp and [MediaStasher] turns its result into a [models.StashOutcome],
// recording only files that were confirmed on disk and hashed.
//
// # Planner
//
// [Planner] sends free-text requests to an OpenAI-compatible chat endpoint and decodes the
// reply into a [models.CommandPlan].
package services
