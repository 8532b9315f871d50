package pipeline

// Stage names a checkpoint of a pipeline run.
type Stage string

// Stages in execution order. auto_fixed and compliance_rechecked only run for
// non-compliant text; seo_extracted and titled only run on create.
const (
	StageInit                Stage = "init"
	StageProfileLoaded       Stage = "profile_loaded"
	StageRewritten           Stage = "rewritten"
	StageComplianceChecked   Stage = "compliance_checked"
	StageAutoFixed           Stage = "auto_fixed"
	StageComplianceRechecked Stage = "compliance_rechecked"
	StageScored              Stage = "scored"
	StageSEOExtracted        Stage = "seo_extracted"
	StageTitled              Stage = "titled"
	StagePersisted           Stage = "persisted"
	StageCompleted           Stage = "completed"
)

// StageDefinition holds the progress percentage and user-facing message of a stage
type StageDefinition struct {
	Name    Stage
	Percent int
	Message string
}

// StageRegistry holds all stage definitions, in order
var StageRegistry = []StageDefinition{
	{StageInit, 0, "요청을 접수했습니다"},
	{StageProfileLoaded, 10, "작성 스타일 프로필을 불러오는 중입니다"},
	{StageRewritten, 20, "블로그 글을 작성하는 중입니다"},
	{StageComplianceChecked, 50, "의료광고 규정을 검토하는 중입니다"},
	{StageAutoFixed, 55, "위반 표현을 자동으로 수정하는 중입니다"},
	{StageComplianceRechecked, 60, "수정된 글을 다시 검토하는 중입니다"},
	{StageScored, 70, "설득력 점수를 계산하는 중입니다"},
	{StageSEOExtracted, 80, "검색 키워드를 추출하는 중입니다"},
	{StageTitled, 90, "제목과 설명을 생성하는 중입니다"},
	{StagePersisted, 95, "결과를 저장하는 중입니다"},
	{StageCompleted, 100, "완료되었습니다"},
}

var stageIndex = func() map[Stage]StageDefinition {
	m := make(map[Stage]StageDefinition, len(StageRegistry))
	for _, def := range StageRegistry {
		m[def.Name] = def
	}
	return m
}()

// GetStage returns the definition of a stage.
func GetStage(s Stage) (StageDefinition, bool) {
	def, ok := stageIndex[s]
	return def, ok
}

// Percent returns the progress percentage at which s starts.
func (s Stage) Percent() int {
	return stageIndex[s].Percent
}
