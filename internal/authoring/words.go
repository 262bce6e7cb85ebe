package authoring

import "math/rand/v2"

// levelWords are the Spanish target words offered per level.
var levelWords = map[Level][]string{
	LevelA1: {
		"ser", "estar", "tener", "hacer", "ir", "decir", "comer", "beber", "vivir", "hablar",
		"casa", "escuela", "coche", "amigo", "madre", "padre", "agua", "pan", "leche", "grande",
		"pequeño", "rápido", "caliente", "frío", "día", "noche", "mañana", "hoy", "ayer", "libro",
		"mesa", "silla", "gato", "perro", "calle", "siempre", "nunca", "aquí", "allí", "muy",
	},
	LevelA2: {
		"buscar", "encontrar", "esperar", "necesitar", "entrar", "salir", "llevar", "abrir", "cerrar", "empezar",
		"terminar", "ayudar", "llamar", "viajar", "volver", "pagar", "comprar", "vender", "temprano", "tarde",
		"cansado", "tranquilo", "barato", "caro", "cerca", "lejos", "estación", "aeropuerto", "maleta", "dinero",
		"tienda", "mercado", "ropa", "zapatos", "cocina", "ventana", "ciudad", "playa", "montaña", "lluvia",
	},
	LevelB1: {
		"desear", "gustar", "molestar", "preocupar", "recordar", "olvidar", "sugerir", "intentar", "decidir", "mejorar",
		"discutir", "convencer", "permitir", "deber", "soler", "parecer", "importar", "crecer", "enfermedad", "médico",
		"empresa", "entrevista", "sueldo", "reunión", "proyecto", "éxito", "oportunidad", "decisión", "razón", "problema",
		"solución", "ventaja", "cultura", "sociedad", "medio ambiente", "tecnología", "idioma", "traducción", "noticia", "película",
	},
}

// Words returns the word list for level, or nil for an unknown level.
func Words(level Level) []string {
	return levelWords[level]
}

// pickWords draws n distinct words for level.
func pickWords(level Level, n int, r *rand.Rand) []string {
	pool := levelWords[level]
	if len(pool) == 0 || n <= 0 {
		return nil
	}
	n = min(n, len(pool))
	out := make([]string, 0, n)
	for _, i := range r.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}
