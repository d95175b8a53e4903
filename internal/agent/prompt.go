package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HexSleeves/parasol/internal/llm"
)

const systemPromptTemplate = `%s
请分析用户需求，如果需要调用函数，请按以下格式回复：
%s {"name": "函数名", "arguments": {"参数名": "参数值"}}

如果不需要调用函数，请直接回答用户问题。
如果已经获得函数结果，请根据结果给出最终建议。

请一步步思考并回答。`

// buildSystemPrompt documents the registered tools and the text protocol
// for backends that reply in plain text instead of native tool calls.
func buildSystemPrompt(tools []llm.ToolDef) string {
	var desc strings.Builder
	desc.WriteString("可用函数:\n")
	for _, t := range tools {
		params, _ := json.Marshal(t.InputSchema)
		fmt.Fprintf(&desc, "- %s: %s\n参数: %s\n", t.Name, t.Description, params)
	}
	return fmt.Sprintf(systemPromptTemplate, desc.String(), llm.CallMarker)
}

// finalizeInstruction closes a tool turn: it asks the backend to turn the
// function result into one short recommendation sentence.
const finalizeInstruction = "现在请根据函数返回的结果，用一句话给出最终的建议回答。请用简洁的语言回答，直接给出有用的信息。"
