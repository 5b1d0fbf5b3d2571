package model

// SeriesBible 系列圣经，后续所有生成步骤共享的风格与叙事上下文
type SeriesBible struct {
	SeriesTitle     string   `json:"seriesTitle" yaml:"seriesTitle"`         // 系列标题
	VisualLanguage  string   `json:"visualLanguage" yaml:"visualLanguage"`   // 视觉语言（镜头、光线、调色关键词）
	NarrativeTone   string   `json:"narrativeTone" yaml:"narrativeTone"`     // 旁白语气
	RecurringMotifs []string `json:"recurringMotifs" yaml:"recurringMotifs"` // 每集反复出现的母题
	EpisodicFormat  string   `json:"episodicFormat" yaml:"episodicFormat"`   // 单集结构
}

// ContextConfig 智能体上下文窗口配置，仅用于展示
type ContextConfig struct {
	WindowSize         int     `json:"windowSize" yaml:"windowSize"`                 // 上下文窗口大小（token）
	Threshold          float64 `json:"threshold" yaml:"threshold"`                   // 触发迁移的占用比例
	MigrationProcedure string  `json:"migrationProcedure" yaml:"migrationProcedure"` // 迁移流程说明
}

// AgentPersona 单个角色的智能体设定
type AgentPersona struct {
	Role          string        `json:"role" yaml:"role"`                   // 角色名
	Model         string        `json:"model" yaml:"model"`                 // 模型标识
	Temperature   float64       `json:"temperature" yaml:"temperature"`     // 采样温度 [0,1]
	SystemPrompt  string        `json:"systemPrompt" yaml:"systemPrompt"`   // 系统提示词
	Tools         []string      `json:"tools" yaml:"tools"`                 // 工具列表（有序）
	Description   string        `json:"description" yaml:"description"`     // 职责描述
	ContextConfig ContextConfig `json:"contextConfig" yaml:"contextConfig"` // 上下文配置
}

// StageStatus 流水线阶段的展示状态
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageGenerating StageStatus = "generating"
	StageComplete   StageStatus = "complete"
)

// ProductionStage 制作流程中的一个阶段
type ProductionStage struct {
	Step        int         `json:"step" yaml:"step"`               // 阶段序号，从1开始连续
	Name        string      `json:"name" yaml:"name"`               // 阶段名称
	AgentRole   string      `json:"agentRole" yaml:"agentRole"`     // 负责的角色
	Description string      `json:"description" yaml:"description"` // 阶段说明
	Status      StageStatus `json:"status" yaml:"status"`           // 展示状态
}

// ContextLifecyclePolicy 上下文生命周期策略
type ContextLifecyclePolicy struct {
	MonitorFrequency   string `json:"monitorFrequency" yaml:"monitorFrequency"`     // 监控频率
	SignalProtocol     string `json:"signalProtocol" yaml:"signalProtocol"`         // 阈值信号协议
	CrystalSchema      string `json:"crystalSchema" yaml:"crystalSchema"`           // Memory Crystal 结构名
	RestorationProcess string `json:"restorationProcess" yaml:"restorationProcess"` // 恢复流程
	ErrorHandling      string `json:"errorHandling" yaml:"errorHandling"`           // 错误处理策略
}

// OrchestratorConfig 编排系统配置
type OrchestratorConfig struct {
	SystemName      string                 `json:"systemName" yaml:"systemName"`           // 系统名称
	Architecture    string                 `json:"architecture" yaml:"architecture"`       // 架构标签
	HealthCheckPort int                    `json:"healthCheckPort" yaml:"healthCheckPort"` // 健康检查端口
	ContextPolicy   ContextLifecyclePolicy `json:"contextPolicy" yaml:"contextPolicy"`     // 上下文策略
	StorageMounts   []string               `json:"storageMounts" yaml:"storageMounts"`     // 存储挂载路径
}

// CostItem 成本明细行，Total 恒等于 UnitCost * Quantity
type CostItem struct {
	Category    string  `json:"category" yaml:"category"`       // 类别
	Description string  `json:"description" yaml:"description"` // 描述
	UnitCost    float64 `json:"unitCost" yaml:"unitCost"`       // 单价
	Quantity    float64 `json:"quantity" yaml:"quantity"`       // 数量
	Total       float64 `json:"total" yaml:"total"`             // 小计
}

// ExecutionArtifacts 生成的三个文本产物
type ExecutionArtifacts struct {
	DockerCompose string `json:"dockerCompose" yaml:"dockerCompose"` // 容器编排清单
	BootScript    string `json:"bootScript" yaml:"bootScript"`       // 启动脚本
	Readme        string `json:"readme" yaml:"readme"`               // 说明文档
}

// MasterBlueprint 一次生成的完整结果
type MasterBlueprint struct {
	Title         string             `json:"title" yaml:"title"`                 // 标题
	Logline       string             `json:"logline" yaml:"logline"`             // 一句话简介
	Style         string             `json:"style" yaml:"style"`                 // 风格
	Runtime       int                `json:"runtime" yaml:"runtime"`             // 时长（分钟）
	SeriesBible   SeriesBible        `json:"seriesBible" yaml:"seriesBible"`     // 系列圣经
	Agents        []AgentPersona     `json:"agents" yaml:"agents"`               // 智能体列表
	Workflow      []ProductionStage  `json:"workflow" yaml:"workflow"`           // 制作流程
	Budget        []CostItem         `json:"budget" yaml:"budget"`               // 成本表
	Orchestrator  OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`   // 编排配置
	DockerCompose string             `json:"dockerCompose" yaml:"dockerCompose"` // 容器编排清单
	BootScript    string             `json:"bootScript" yaml:"bootScript"`       // 启动脚本
	Readme        string             `json:"readme" yaml:"readme"`               // 说明文档
}

// Artifact 文件名，与导出视图保持一致
const (
	ArtifactReadme        = "README.md"
	ArtifactDockerCompose = "docker-compose.yml"
	ArtifactBootScript    = "boot_orchestrator.py"
	ArtifactBlueprint     = "blueprint.json"
)

// ArtifactText 按文件名取出文本产物，blueprint.json 不在此处理
func (b *MasterBlueprint) ArtifactText(name string) (string, bool) {
	switch name {
	case ArtifactReadme:
		return b.Readme, true
	case ArtifactDockerCompose:
		return b.DockerCompose, true
	case ArtifactBootScript:
		return b.BootScript, true
	default:
		return "", false
	}
}
