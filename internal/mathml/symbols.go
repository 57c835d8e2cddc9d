package mathml

// identifiers maps identifier glyphs that need a command in LaTeX.
var identifiers = map[string]string{
	"α": `\alpha`, "β": `\beta`, "γ": `\gamma`, "δ": `\delta`,
	"ε": `\epsilon`, "ϵ": `\epsilon`, "ζ": `\zeta`, "η": `\eta`,
	"θ": `\theta`, "ϑ": `\vartheta`, "ι": `\iota`, "κ": `\kappa`,
	"λ": `\lambda`, "μ": `\mu`, "ν": `\nu`, "ξ": `\xi`,
	"π": `\pi`, "ρ": `\rho`, "σ": `\sigma`, "ς": `\varsigma`,
	"τ": `\tau`, "υ": `\upsilon`, "φ": `\phi`, "ϕ": `\phi`,
	"χ": `\chi`, "ψ": `\psi`, "ω": `\omega`,
	"Γ": `\Gamma`, "Δ": `\Delta`, "Θ": `\Theta`, "Λ": `\Lambda`,
	"Ξ": `\Xi`, "Π": `\Pi`, "Σ": `\Sigma`, "Υ": `\Upsilon`,
	"Φ": `\Phi`, "Ψ": `\Psi`, "Ω": `\Omega`,
	"∞": `\infty`, "∂": `\partial`,
}

// operators maps operator glyphs to LaTeX. Unmapped glyphs pass through.
var operators = map[string]string{
	"−": "-", "×": `\times`, "÷": `\div`, "·": `\cdot`, "⋅": `\cdot`,
	"±": `\pm`, "∓": `\mp`, "∘": `\circ`,
	"≠": `\neq`, "≤": `\leq`, "≥": `\geq`, "≈": `\approx`, "≡": `\equiv`,
	"∼": `\sim`, "≅": `\cong`, "∝": `\propto`, "≪": `\ll`, "≫": `\gg`,
	"∈": `\in`, "∉": `\notin`, "⊂": `\subset`, "⊆": `\subseteq`,
	"⊃": `\supset`, "⊇": `\supseteq`, "∪": `\cup`, "∩": `\cap`, "∅": `\emptyset`,
	"∧": `\land`, "∨": `\lor`, "¬": `\neg`,
	"∀": `\forall`, "∃": `\exists`,
	"→": `\to`, "←": `\leftarrow`, "↔": `\leftrightarrow`,
	"⇒": `\Rightarrow`, "⇐": `\Leftarrow`, "⇔": `\Leftrightarrow`, "↦": `\mapsto`,
	"∑": `\sum`, "∏": `\prod`, "∫": `\int`, "∬": `\iint`, "∮": `\oint`,
	"∇": `\nabla`, "∂": `\partial`, "∞": `\infty`,
	"…": `\ldots`, "⋯": `\cdots`, "⋮": `\vdots`,
	"{": `\{`, "}": `\}`, "⟨": `\langle`, "⟩": `\rangle`,
	"%": `\%`, "#": `\#`, "&": `\&`, "$": `\$`,
	"‖": `\|`, "′": "'", "″": "''",
	"\u2061": "", "\u2062": "", "\u2063": ",",
}

// accents maps over-script glyphs to accent commands.
var accents = map[string]string{
	"¯": `\bar`, "‾": `\bar`, "\u0304": `\bar`, "\u0305": `\bar`, "_": `\bar`,
	"^": `\hat`, "ˆ": `\hat`, "\u0302": `\hat`,
	"~": `\tilde`, "˜": `\tilde`, "\u0303": `\tilde`,
	"˙": `\dot`, "\u0307": `\dot`, ".": `\dot`,
	"¨": `\ddot`, "\u0308": `\ddot`,
	"→": `\vec`, "\u20d7": `\vec`,
}

// thinSpace is emitted for every mspace.
const thinSpace = `\,`
