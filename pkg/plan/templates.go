package plan

import "github.com/maestrohq/maestro/pkg/models"

// Built-in consulting plan templates. Each one is a small DAG in the same
// shape: a scoping step fans out to research and data analysis, which merge
// into synthesis and end in a manager review. The report step carries the
// "deliverable" checkpoint phase, so gated runs pause there for approval.

// MarketAnalysis researches competitors, analyzes market size, and produces
// a strategy report.
//
// DAG structure:
//
//	define-scope
//	    |
//	research-competitors  analyze-market-data
//	    |                     |
//	assess-opportunities
//	    |
//	strategy-report
//	    |
//	executive-review
func MarketAnalysis() *models.Plan {
	p := models.NewPlan("market-analysis",
		"Research competitors, analyze market size, and generate strategy report")

	p.MustAddStep(models.Step{
		ID:          "define-scope",
		Name:        "Define Scope",
		Description: "Define target markets, geographies, and competitive landscape boundaries",
		Role:        models.RoleAnalyst,
	})
	p.MustAddStep(models.Step{
		ID:          "research-competitors",
		Name:        "Competitive Research",
		Description: "Research key competitors, their offerings, strengths, and weaknesses",
		Role:        models.RoleResearcher,
		DependsOn:   []string{"define-scope"},
	})
	p.MustAddStep(models.Step{
		ID:          "analyze-market-data",
		Name:        "Market Data Analysis",
		Description: "Analyze market size, growth rates, and demographic trends",
		Role:        models.RoleDataAnalyst,
		DependsOn:   []string{"define-scope"},
	})
	p.MustAddStep(models.Step{
		ID:          "assess-opportunities",
		Name:        "Opportunity Assessment",
		Description: "Identify market gaps and strategic opportunities from research and data",
		Role:        models.RoleAnalyst,
		DependsOn:   []string{"research-competitors", "analyze-market-data"},
	})
	p.MustAddStep(models.Step{
		ID:              "strategy-report",
		Name:            "Strategy Report",
		Description:     "Compile findings into a comprehensive market strategy report",
		Role:            models.RoleAnalyst,
		DependsOn:       []string{"assess-opportunities"},
		CheckpointPhase: "deliverable",
	})
	p.MustAddStep(models.Step{
		ID:          "executive-review",
		Name:        "Executive Review",
		Description: "Review strategy report and coordinate executive presentation",
		Role:        models.RoleManager,
		DependsOn:   []string{"strategy-report"},
	})

	return p
}

// CustomerSegmentation analyzes customer data to identify segments and
// develop targeting strategies.
func CustomerSegmentation() *models.Plan {
	p := models.NewPlan("customer-segmentation",
		"Analyze customer data to identify segments and develop targeting strategies")

	p.MustAddStep(models.Step{
		ID:          "gather-requirements",
		Name:        "Gather Requirements",
		Description: "Collect business objectives, data sources, and segmentation criteria",
		Role:        models.RoleAnalyst,
	})
	p.MustAddStep(models.Step{
		ID:          "research-market",
		Name:        "Market Research",
		Description: "Research industry benchmarks and segmentation best practices",
		Role:        models.RoleResearcher,
		DependsOn:   []string{"gather-requirements"},
	})
	p.MustAddStep(models.Step{
		ID:          "analyze-data",
		Name:        "Data Analysis",
		Description: "Analyze customer data, build segments, generate statistical profiles",
		Role:        models.RoleDataAnalyst,
		DependsOn:   []string{"gather-requirements"},
	})
	p.MustAddStep(models.Step{
		ID:              "synthesize-report",
		Name:            "Synthesize Report",
		Description:     "Combine market research and data analysis into actionable recommendations",
		Role:            models.RoleAnalyst,
		DependsOn:       []string{"research-market", "analyze-data"},
		CheckpointPhase: "deliverable",
	})
	p.MustAddStep(models.Step{
		ID:          "project-review",
		Name:        "Project Review",
		Description: "Review deliverables, coordinate stakeholder feedback",
		Role:        models.RoleManager,
		DependsOn:   []string{"synthesize-report"},
	})

	return p
}

// ProcessImprovement maps current processes, identifies gaps, and proposes
// improvements.
func ProcessImprovement() *models.Plan {
	p := models.NewPlan("process-improvement",
		"Map current processes, identify gaps, and propose improvements")

	p.MustAddStep(models.Step{
		ID:          "map-current-processes",
		Name:        "Process Mapping",
		Description: "Document existing workflows, identify inputs/outputs, and map process flows",
		Role:        models.RoleAnalyst,
	})
	p.MustAddStep(models.Step{
		ID:          "research-best-practices",
		Name:        "Best Practice Research",
		Description: "Research industry best practices and benchmark against peer organizations",
		Role:        models.RoleResearcher,
		DependsOn:   []string{"map-current-processes"},
	})
	p.MustAddStep(models.Step{
		ID:          "analyze-process-data",
		Name:        "Process Data Analysis",
		Description: "Analyze cycle times, throughput, error rates, and bottleneck metrics",
		Role:        models.RoleDataAnalyst,
		DependsOn:   []string{"map-current-processes"},
	})
	p.MustAddStep(models.Step{
		ID:          "identify-improvements",
		Name:        "Improvement Identification",
		Description: "Synthesize research and data to identify improvement opportunities",
		Role:        models.RoleAnalyst,
		DependsOn:   []string{"research-best-practices", "analyze-process-data"},
	})
	p.MustAddStep(models.Step{
		ID:              "improvement-report",
		Name:            "Improvement Report",
		Description:     "Compile detailed recommendations with ROI projections and implementation roadmap",
		Role:            models.RoleAnalyst,
		DependsOn:       []string{"identify-improvements"},
		CheckpointPhase: "deliverable",
	})
	p.MustAddStep(models.Step{
		ID:          "stakeholder-review",
		Name:        "Stakeholder Review",
		Description: "Present findings, gather feedback, and coordinate implementation planning",
		Role:        models.RoleManager,
		DependsOn:   []string{"improvement-report"},
	})

	return p
}

// TechnologyAssessment audits the current stack, researches alternatives,
// and builds recommendations.
func TechnologyAssessment() *models.Plan {
	p := models.NewPlan("technology-assessment",
		"Assess current technology, research alternatives, and build recommendations")

	p.MustAddStep(models.Step{
		ID:          "assess-current-tech",
		Name:        "Current Stack Audit",
		Description: "Audit existing technology stack, integrations, and capabilities",
		Role:        models.RoleAnalyst,
	})
	p.MustAddStep(models.Step{
		ID:          "research-alternatives",
		Name:        "Alternatives Research",
		Description: "Research alternative technologies, vendors, and emerging solutions",
		Role:        models.RoleResearcher,
		DependsOn:   []string{"assess-current-tech"},
	})
	p.MustAddStep(models.Step{
		ID:          "analyze-tech-data",
		Name:        "Tech Data Analysis",
		Description: "Analyze performance metrics, cost data, and usage patterns",
		Role:        models.RoleDataAnalyst,
		DependsOn:   []string{"assess-current-tech"},
	})
	p.MustAddStep(models.Step{
		ID:          "build-recommendations",
		Name:        "Build Recommendations",
		Description: "Synthesize research and data into technology recommendations",
		Role:        models.RoleAnalyst,
		DependsOn:   []string{"research-alternatives", "analyze-tech-data"},
	})
	p.MustAddStep(models.Step{
		ID:              "assessment-report",
		Name:            "Assessment Report",
		Description:     "Compile findings into a technology assessment report with migration plan",
		Role:            models.RoleAnalyst,
		DependsOn:       []string{"build-recommendations"},
		CheckpointPhase: "deliverable",
	})
	p.MustAddStep(models.Step{
		ID:          "governance-review",
		Name:        "Governance Review",
		Description: "Review assessment with governance board and coordinate approval process",
		Role:        models.RoleManager,
		DependsOn:   []string{"assessment-report"},
	})

	return p
}

// RegisterTemplates registers every built-in template on a registry.
func RegisterTemplates(r *Registry) {
	r.Register(MarketAnalysis())
	r.Register(CustomerSegmentation())
	r.Register(ProcessImprovement())
	r.Register(TechnologyAssessment())
}
