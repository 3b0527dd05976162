package pipeline

import "fmt"

// StageSpec describes one agent stage: its position, recorded step name,
// and the routing keyword the agent runtime dispatches on. The keyword is
// appended to the prompt as an opaque suffix, never interpreted here.
type StageSpec struct {
	Number  int
	Name    string
	Keyword string
	Final   bool
}

var stageSpecs = []StageSpec{
	{Number: 1, Name: "STAGE_1_REVIEW", Keyword: "Sort_Initial"},
	{Number: 2, Name: "STAGE_2_SORT", Keyword: "Sort"},
	{Number: 3, Name: "STAGE_3_SORT", Keyword: "Wraggler2"},
	{Number: 4, Name: "STAGE_4_SYNTHESIS", Keyword: "Wraggler3", Final: true},
}

// StageCount is the number of agent stages in a full run.
const StageCount = 4

// StageByNumber returns the spec for a 1-indexed stage number.
func StageByNumber(n int) (StageSpec, error) {
	if n < 1 || n > len(stageSpecs) {
		return StageSpec{}, fmt.Errorf("%w: %d", ErrUnknownStage, n)
	}
	return stageSpecs[n-1], nil
}

// Section headers framing the combined prompt text.
const (
	headerCumulative  = "--- CUMULATIVE CASE SUMMARY FROM PREVIOUS STAGE ---"
	headerNewEvidence = "--- NEW EVIDENCE UPLOADED ---"
)

// synthesisTrailer is injected into the final stage prompt so the
// synthesis agent closes with a machine-readable determination.
const synthesisTrailer = `When you deliver the final determination, end your response with exactly these tags:
<STATUS>approved or denied</STATUS>
<PERCENTAGE>likelihood of success as a percentage</PERCENTAGE>
<PROS>factors supporting the case</PROS>
<CONS>factors working against the case</CONS>`
