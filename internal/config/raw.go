package config

// rawDocument mirrors Document but in the shape the YAML file actually
// uses: variant `depends_on`/`on` fields, string durations, and
// map-keyed-by-name blocks whose key becomes the decoded value's name/id.
// decode() converts a rawDocument into a normalized Document.
type rawDocument struct {
	Version           string                         `yaml:"version,omitempty"`
	Env               map[string]string              `yaml:"env,omitempty"`
	AIProvider        string                         `yaml:"ai_provider,omitempty"`
	AIModel           string                         `yaml:"ai_model,omitempty"`
	AITemperature     float64                        `yaml:"ai_temperature,omitempty"`
	MaxParallelism    int                            `yaml:"max_parallelism,omitempty"`
	Memory            rawMemoryConfig                `yaml:"memory,omitempty"`
	Checks            map[string]rawCheckConfig      `yaml:"checks,omitempty"`
	Output            rawOutputConfig                `yaml:"output,omitempty"`
	FailIf            string                         `yaml:"fail_if,omitempty"`
	FailureConditions map[string]rawFailureCondition `yaml:"failure_conditions,omitempty"`
}

type rawMemoryConfig struct {
	Storage   string `yaml:"storage,omitempty"`
	File      string `yaml:"file,omitempty"`
	Format    string `yaml:"format,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
	AutoLoad  bool   `yaml:"auto_load,omitempty"`
	AutoSave  bool   `yaml:"auto_save,omitempty"`
}

type rawOutputConfig struct {
	PRComment rawPRCommentConfig `yaml:"pr_comment,omitempty"`
}

type rawPRCommentConfig struct {
	Format   string `yaml:"format,omitempty"`
	GroupBy  string `yaml:"group_by,omitempty"`
	Collapse bool   `yaml:"collapse,omitempty"`
}

type rawFailureCondition struct {
	Condition     string `yaml:"condition"`
	Message       string `yaml:"message,omitempty"`
	Severity      string `yaml:"severity,omitempty"`
	HaltExecution bool   `yaml:"halt_execution,omitempty"`
}

type rawRetryPolicy struct {
	MaxAttempts int    `yaml:"max_attempts,omitempty"`
	Backoff     string `yaml:"backoff,omitempty"`
}

type rawRoutingAction struct {
	Run       []string        `yaml:"run,omitempty"`
	RunJS     string          `yaml:"run_js,omitempty"`
	Goto      string          `yaml:"goto,omitempty"`
	GotoJS    string          `yaml:"goto_js,omitempty"`
	GotoEvent string          `yaml:"goto_event,omitempty"`
	Retry     *rawRetryPolicy `yaml:"retry,omitempty"`
}

// rawCheckConfig is one entry of `checks:` as it appears on disk — the
// same field set as core.CheckConfig, but with the variant/string-typed
// fields YAML actually hands us (§4.9, §6).
type rawCheckConfig struct {
	Type              string                         `yaml:"type"`
	Tags              []string                       `yaml:"tags,omitempty"`
	Group             string                         `yaml:"group,omitempty"`
	On                StringOrSlice                  `yaml:"on,omitempty"`
	DependsOn         StringOrSlice                  `yaml:"depends_on,omitempty"`
	If                string                         `yaml:"if,omitempty"`
	ForEach           bool                           `yaml:"forEach,omitempty"`
	Timeout           string                         `yaml:"timeout,omitempty"`
	FailIf            string                         `yaml:"fail_if,omitempty"`
	FailureConditions map[string]rawFailureCondition `yaml:"failure_conditions,omitempty"`
	OnSuccess         *rawRoutingAction              `yaml:"on_success,omitempty"`
	OnFail            *rawRoutingAction              `yaml:"on_fail,omitempty"`
	OnFinish          *rawRoutingAction              `yaml:"on_finish,omitempty"`
	ContinueOnFailure bool                           `yaml:"continue_on_failure,omitempty"`
	MaxLoops          int                            `yaml:"max_loops,omitempty"`
	Env               map[string]string              `yaml:"env,omitempty"`
	Retry             *rawRetryPolicy                `yaml:"retry,omitempty"`

	Prompt        string `yaml:"prompt,omitempty"`
	Schema        string `yaml:"schema,omitempty"`
	Exec          string `yaml:"exec,omitempty"`
	TranscriptDir string `yaml:"transcript_dir,omitempty"`
	Content       string `yaml:"content,omitempty"`
	Operation     string `yaml:"operation,omitempty"`
	Key           string `yaml:"key,omitempty"`
	Value         any    `yaml:"value,omitempty"`
	ValueJS       string `yaml:"value_js,omitempty"`
	MemoryJS      string `yaml:"memory_js,omitempty"`
	Namespace     string `yaml:"namespace,omitempty"`
	Transform     string `yaml:"transform,omitempty"`
	TransformJS   string `yaml:"transform_js,omitempty"`
}
