package engine

import "fmt"

const missingSymbolMsg = "❌ Error: Símbolo no recibido. Asegura que el JSON de TradingView contenga el campo 'symbol'."

func alertMsg(symbol, analysis string) string {
	return fmt.Sprintf("📊 *SEÑAL INTRADÍA %s*\n\n%s", symbol, analysis)
}

func singlePassMsg(symbol, analysis string) string {
	return fmt.Sprintf("🚨 *ANÁLISIS IA RÁPIDO para %s* 🚨\n\n%s", symbol, analysis)
}

func contextUpdatedMsg(symbol, analysis string) string {
	return fmt.Sprintf("🧭 *Contexto de mercado actualizado (%s)*\n\n%s", symbol, analysis)
}

func captureFailedMsg(symbol, timeframe string) string {
	return fmt.Sprintf("❌ Fallo crítico al capturar el gráfico %s en %s. Revisar URL del gráfico.", symbol, timeframe)
}

func contextMissingMsg(symbol string) string {
	return fmt.Sprintf("⚠️ Contexto de mercado no inicializado para %s. Ejecuta primero el modo contexto.", symbol)
}

func contextLoadFailedMsg(symbol string, err error) string {
	return fmt.Sprintf("❌ No se pudo leer el contexto de mercado para %s: %v", symbol, err)
}

func analysisFailedMsg(symbol string, err error) string {
	return fmt.Sprintf("❌ Error en el análisis IA para %s: %v", symbol, err)
}

func persistFailedMsg(symbol string, err error) string {
	return fmt.Sprintf("❌ No se pudo guardar el contexto de mercado de %s: %v", symbol, err)
}
