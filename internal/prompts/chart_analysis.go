package prompts

import (
	"fmt"
	"strings"
)

// SinglePassPrompt asks for a self-contained multi-timeframe read plus a
// COMPRA/VENTA/ESPERA recommendation. Used by the webhook.
func SinglePassPrompt(symbol string, labels []string) string {
	return fmt.Sprintf(
		"Analiza este conjunto de %d capturas de pantalla del activo %s "+
			"en los siguientes marcos de tiempo: %s. "+
			"Basado en el análisis de tendencia (largo, medio y corto plazo), patrones y soportes/resistencias: "+
			"1. Resume las conclusiones clave de cada marco de tiempo. "+
			"2. Proporciona una recomendación de trading final, clara y concisa (COMPRA, VENTA o ESPERA) para los próximos días. "+
			"Usa un formato de lista y párrafos cortos para facilitar la lectura.",
		len(labels), symbol, strings.Join(labels, ", "))
}

// ContextPrompt builds the macro-context instruction. Its output is stored
// verbatim and later injected into ExecutionPrompt.
func ContextPrompt(symbol string, labels []string) string {
	return fmt.Sprintf(`Eres un analista técnico. Recibes %d capturas del activo %s, en este orden: %s.

Elabora el CONTEXTO MACRO del activo para las próximas sesiones:
1. Tendencia dominante en cada marco de tiempo (alcista, bajista o lateral) y su fuerza.
2. Soportes y resistencias clave con niveles de precio concretos.
3. Zonas de interés donde buscar entradas y zonas a evitar.
4. Sesgo general (alcista, bajista o neutral) y qué lo invalidaría.

No des una recomendación de entrada inmediata. Sé preciso y breve: este texto se reutilizará como contexto en análisis intradía.`,
		len(labels), symbol, strings.Join(labels, ", "))
}

// ExecutionPrompt builds the tactical instruction with the stored context
// interpolated verbatim between the markers.
func ExecutionPrompt(symbol string, labels []string, marketContext string) string {
	return fmt.Sprintf(`Eres un trader intradía disciplinado. Este es el CONTEXTO MACRO vigente de %s:
<<<CONTEXTO
%s
CONTEXTO>>>

Recibes %d capturas de marcos cortos, en este orden: %s.

Decide si hay una entrada accionable AHORA coherente con el contexto macro:
- Responde en la primera línea con una sola palabra: COMPRA, VENTA o ESPERA.
- Si es COMPRA o VENTA, indica entrada, stop y objetivo con niveles concretos.
- Justifica en un máximo de 4 viñetas cortas.
- Si las señales contradicen el contexto o no son claras, responde ESPERA.`,
		symbol, marketContext, len(labels), strings.Join(labels, ", "))
}

// SystemPrompt returns the default system prompt for the chart analyst.
func SystemPrompt() string {
	return "Eres un analista técnico senior. Lees gráficos de velas con precisión y respondes en español, de forma concisa y accionable."
}
