package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/register_run.sql
var RegisterRun string

//go:embed queries/lookup_run.sql
var LookupRun string

//go:embed queries/update_run_status.sql
var UpdateRunStatus string

//go:embed queries/finish_run.sql
var FinishRun string

//go:embed queries/delete_run_scores.sql
var DeleteRunScores string

//go:embed queries/delete_run_blend.sql
var DeleteRunBlend string

//go:embed queries/analyze_scores.sql
var AnalyzeScores string
