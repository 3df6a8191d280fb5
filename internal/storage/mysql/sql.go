package mysql

// One row per (kind, subject); repeats bump the counter and refresh the reason.
const upsertFailureSQL = `
INSERT INTO lookup_failures (kind, subject, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  reason  = VALUES(reason),
  hits    = hits + 1,
  seen_at = CURRENT_TIMESTAMP
`

const listFailuresSQL = `
SELECT kind, subject, reason, hits, seen_at
FROM lookup_failures
WHERE kind = ?
ORDER BY seen_at DESC, subject
LIMIT ?
`
