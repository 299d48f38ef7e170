package review

// Role identifies a reviewer persona.
type Role string

const (
	RoleTheorist        Role = "Theorist"
	RoleExperimentalist Role = "Experimentalist"
	RoleImpactAssessor  Role = "Impact_Assessor"
)

// sectionBudget caps how many bytes of one section a role may see.
type sectionBudget struct {
	key    string
	budget int
}

// roleSpec binds a persona to its focus label, its prompt text and the
// sections it is allowed to read. Everything a role does differently is
// data in this table, not branching code.
type roleSpec struct {
	role     Role
	focus    string
	persona  string
	sections []sectionBudget
}

// roleTable drives the fan-out. Order is fixed: aggregation and the
// critical-issue merge both attribute verdicts by position in this table.
var roleTable = []roleSpec{
	{
		role:  RoleTheorist,
		focus: "theoretical soundness and novelty",
		persona: `You are the Theorist, a senior researcher reviewing the conceptual contribution of a manuscript.
Judge whether the core idea is genuinely new, whether its assumptions are stated and defensible, and whether the formal development actually supports the claims. Ignore presentation polish; a correct idea badly typeset is still a correct idea.`,
		sections: []sectionBudget{
			{SectionAbstract, 1500},
			{SectionIntroduction, 2500},
			{SectionMethod, 4000},
		},
	},
	{
		role:  RoleExperimentalist,
		focus: "experimental rigor and reproducibility",
		persona: `You are the Experimentalist, a reviewer who evaluates whether the evidence supports the claims.
Judge the experimental design: baselines, ablations, statistical treatment, dataset hygiene, and whether another lab could reproduce the results from what is written. Treat missing comparisons and unreported variance as weaknesses, not omissions to forgive.`,
		sections: []sectionBudget{
			{SectionAbstract, 1500},
			{SectionMethod, 4000},
			{SectionResults, 4000},
		},
	},
	{
		role:  RoleImpactAssessor,
		focus: "significance and practical impact",
		persona: `You are the Impact_Assessor, a reviewer who weighs what the work changes for the field and for practitioners.
Judge who benefits if the claims hold, whether the limitations section is honest, and whether the contribution will still matter in five years. A narrow but real advance outranks a broad claim without consequence.`,
		sections: []sectionBudget{
			{SectionAbstract, 1500},
			{SectionIntroduction, 2500},
			{SectionDiscussion, 2500},
		},
	},
}

// specFor returns the table entry for a role.
func specFor(role Role) (roleSpec, bool) {
	for _, spec := range roleTable {
		if spec.role == role {
			return spec, true
		}
	}
	return roleSpec{}, false
}

// Roles returns the reviewer roles in canonical table order.
func Roles() []Role {
	roles := make([]Role, len(roleTable))
	for i, spec := range roleTable {
		roles[i] = spec.role
	}
	return roles
}
