//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

package language

import "fmt"

// UnsupportedLanguagePairError is returned by Translate when the translation
// backend has no mapping for the source or target language. It is fatal to
// the request and must not be swallowed by callers.
type UnsupportedLanguagePairError struct {
	Source string
	Target string
}

func (e *UnsupportedLanguagePairError) Error() string {
	return fmt.Sprintf("language: unsupported translation pair %s -> %s", e.Source, e.Target)
}

// floresCodes maps primary BCP47 subtags to the FLORES-200 codes the
// translation backend understands. A tag absent here cannot be translated.
var floresCodes = map[string]string{
	"am":  "amh_Ethi",
	"ar":  "arb_Arab",
	"bg":  "bul_Cyrl",
	"cs":  "ces_Latn",
	"de":  "deu_Latn",
	"el":  "ell_Grek",
	"en":  "eng_Latn",
	"es":  "spa_Latn",
	"fa":  "pes_Arab",
	"fr":  "fra_Latn",
	"hr":  "hrv_Latn",
	"hu":  "hun_Latn",
	"it":  "ita_Latn",
	"kmr": "kmr_Latn",
	"nl":  "nld_Latn",
	"pl":  "pol_Latn",
	"ps":  "pbt_Arab",
	"pt":  "por_Latn",
	"ro":  "ron_Latn",
	"ru":  "rus_Cyrl",
	"so":  "som_Latn",
	"sq":  "als_Latn",
	"sr":  "srp_Cyrl",
	"ti":  "tir_Ethi",
	"tr":  "tur_Latn",
	"uk":  "ukr_Cyrl",
	"ur":  "urd_Arab",
	"vi":  "vie_Latn",
	"zh":  "zho_Hans",
}

// classificationCorrections fixes tags that classification models emit
// differently than the translation backend expects.
var classificationCorrections = map[string]string{
	"ku": "kmr",
}

// pairCodes resolves the backend codes for a translation pair.
func pairCodes(source, target string) (string, string, error) {
	src, ok := floresCodes[source]
	if !ok {
		return "", "", &UnsupportedLanguagePairError{Source: source, Target: target}
	}
	tgt, ok := floresCodes[target]
	if !ok {
		return "", "", &UnsupportedLanguagePairError{Source: source, Target: target}
	}
	return src, tgt, nil
}
