package llminterpreter

const (
	rootCommandUse                 = "llm-interpreter"
	rootCommandShort               = "Code interpreter driven by an LLM planner, coder and Go runner"
	environmentPrefix              = "LLM_INTERPRETER"
	runCommandUse                  = "run [TASK]"
	runCommandShort                = "Solve a task by planning, writing and running Go code"
	runCommandArgsMax              = 1
	stepsCommandUse                = "steps"
	stepsCommandShort              = "List the steps the planner can choose from"
	configCommandUse               = "config"
	configCommandShort             = "Show the resolved configuration source, models and agents"
	historyCommandUse              = "history"
	historyCommandShort            = "List recorded sessions"
	historyShowCommandUse          = "show SESSION_ID"
	historyShowCommandShort        = "Print the transcript of a recorded session"
	configFlagName                 = "config"
	configFlagUsage                = "Path to config.yaml (falls back to ./config.yaml, ~/.llm-interpreter/config.yaml, embedded defaults)"
	taskFlagName                   = "task"
	taskFlagUsage                  = "Task to solve (alternative to the positional argument)"
	maxRoundFlagName               = "max-round"
	maxRoundFlagUsage              = "Maximum planner rounds (0 = use config)"
	modelFlagName                  = "model"
	modelFlagUsage                 = "Model name from models[] used for every agent"
	timeoutFlagName                = "timeout"
	timeoutFlagUsage               = "Overall timeout, e.g. 5m (0 = use config)"
	interactiveFlagName            = "interactive"
	interactiveFlagUsage           = "Answer questions yourself (true) or let a simulated user answer (false)"
	transcriptFlagName             = "transcript"
	transcriptFlagUsage            = "Write a markdown transcript of the session to this path"
	historyDatabaseFlagName        = "history-db"
	historyDatabaseFlagUsage       = "SQLite file that records session events"
	limitFlagName                  = "limit"
	limitFlagUsage                 = "Maximum sessions to list"
	defaultHistoryLimit            = 20
	defaultConfigPath              = ""
	plannerAgentName               = "planner"
	plannerHelperAgentName         = "planner-helper"
	reviewerAgentSuffix            = "-reviewer"
	extractorAgentSuffix           = "-extractor"
	resultLineFormat               = "%s: %s\n"
	transcriptWrittenFormat        = "transcript written to %s\n"
	stepLineFormat                 = "%s\t%s\n"
	sessionLineFormat              = "%s\t%s\t%s\trounds=%d\t%s\n"
	modelLineFormat                = "%s\t(provider=%s, model_id=%s%s)\n"
	agentLineFormat                = "%s\t%s\n"
	dashPlaceholder                = "-"
	defaultMarker                  = ", default"
	missingAPIKeyErrorFormat       = "missing API key: set %s"
	missingTaskErrorMessage        = "a task is required: pass it as an argument or with --task"
	missingHistoryDatabaseMessage  = "no history database: pass --history-db or set interpreter.history.database"
	unknownSessionErrorFormat      = "no recorded events for session %q"
	unknownModelErrorFormat        = "model %q not found in models[]"
	configurationLoaderErrorFormat = "initialize configuration loader: %w"
	configurationSourceErrorFormat = "resolve configuration source: %w"
	rootConfigurationErrorFormat   = "load root configuration %s: %w"
	buildInterpreterErrorFormat    = "build interpreter: %w"
	solveErrorFormat               = "solve task: %w"
	environmentFlagErrorFormat     = "apply %s from environment: %w"
	writeOutputErrorFormat         = "write output: %w"
)
